package params

const (
	SecParam = 256
	SecBytes = SecParam / 8

	// BitsPaillier is the size of the election modulus N = p⋅q.
	BitsPaillier = 2048
	// BitsPaillierPrime is the size of each factor of N.
	BitsPaillierPrime = BitsPaillier / 2

	BytesPaillier   = BitsPaillier / 8  // = 256
	BytesCiphertext = 2 * BytesPaillier // = 512

	// BitsGroup is the size of the safe prime p of the identity group.
	BitsGroup  = 2048
	BytesGroup = BitsGroup / 8

	// PrimalityIterations is the number of Miller-Rabin rounds used when testing candidates.
	PrimalityIterations = 20

	// Difficulty is the default number of leading hexadecimal zeros a sealed block hash needs.
	Difficulty = 4
)

// GroupPrimeHex is the 2048-bit MODP prime of RFC 3526 (group 14), with generator 2.
const GroupPrimeHex = "FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D" +
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F" +
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D" +
	"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9" +
	"DE2BCBF6955817183995497CEA956AE515D2261898FA0510" +
	"15728E5A8AACAA68FFFFFFFFFFFFFFFF"

const GroupGenerator = 2
