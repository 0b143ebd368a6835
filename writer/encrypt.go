package writer

import (
	"crypto/md5"
	"crypto/rc4"
	"encoding/binary"

	"github.com/documint/pdfcore/document"
)

// Standard security handler, V2/R3 with a 128-bit RC4 key (ISO 32000
// Algorithms 2, 3 and 5).

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

const encKeyLength = 16

type encryptor struct {
	key []byte
	o   []byte
	u   []byte
	p   uint32
}

// padPassword truncates the password to 32 bytes or extends it with the
// standard padding string.
func padPassword(password string) []byte {
	out := make([]byte, 32)
	n := copy(out, []byte(password))
	copy(out[n:], passwordPad)
	return out
}

func permissionValue(perms document.Permissions) uint32 {
	// Reserved bits 7-8 and 13-32 must be set.
	return uint32(perms) | 0xFFFFF0C0
}

func newEncryptor(doc *document.Document, fileID []byte) (*encryptor, error) {
	owner := doc.OwnerPassword
	if owner == "" {
		owner = doc.UserPassword
	}
	p := permissionValue(doc.Permissions)

	o := computeOwnerValue(owner, doc.UserPassword)
	key := computeEncryptionKey(doc.UserPassword, o, p, fileID)
	u := computeUserValue(key, fileID)

	return &encryptor{key: key, o: o, u: u, p: p}, nil
}

// computeOwnerValue implements Algorithm 3.
func computeOwnerValue(ownerPassword, userPassword string) []byte {
	digest := md5.Sum(padPassword(ownerPassword))
	for i := 0; i < 50; i++ {
		digest = md5.Sum(digest[:encKeyLength])
	}
	rc4Key := digest[:encKeyLength]

	out := padPassword(userPassword)
	c, _ := rc4.NewCipher(rc4Key)
	c.XORKeyStream(out, out)
	for i := 1; i <= 19; i++ {
		round := make([]byte, len(rc4Key))
		for j := range rc4Key {
			round[j] = rc4Key[j] ^ byte(i)
		}
		c, _ = rc4.NewCipher(round)
		c.XORKeyStream(out, out)
	}
	return out
}

// computeEncryptionKey implements Algorithm 2.
func computeEncryptionKey(userPassword string, o []byte, p uint32, fileID []byte) []byte {
	h := md5.New()
	h.Write(padPassword(userPassword))
	h.Write(o)
	var pBytes [4]byte
	binary.LittleEndian.PutUint32(pBytes[:], p)
	h.Write(pBytes[:])
	h.Write(fileID)
	key := h.Sum(nil)
	for i := 0; i < 50; i++ {
		digest := md5.Sum(key[:encKeyLength])
		key = digest[:]
	}
	return key[:encKeyLength]
}

// computeUserValue implements Algorithm 5.
func computeUserValue(key, fileID []byte) []byte {
	h := md5.New()
	h.Write(passwordPad)
	h.Write(fileID)
	digest := h.Sum(nil)

	c, _ := rc4.NewCipher(key)
	c.XORKeyStream(digest, digest)
	for i := 1; i <= 19; i++ {
		round := make([]byte, len(key))
		for j := range key {
			round[j] = key[j] ^ byte(i)
		}
		c, _ = rc4.NewCipher(round)
		c.XORKeyStream(digest, digest)
	}
	out := make([]byte, 32)
	copy(out, digest)
	return out
}

// encrypt applies the per-object RC4 cipher (Algorithm 1) to data in place
// semantics: a new slice is returned.
func (e *encryptor) encrypt(objNum, gen int, data []byte) []byte {
	h := md5.New()
	h.Write(e.key)
	h.Write([]byte{byte(objNum), byte(objNum >> 8), byte(objNum >> 16), byte(gen), byte(gen >> 8)})
	digest := h.Sum(nil)
	n := len(e.key) + 5
	if n > 16 {
		n = 16
	}
	c, _ := rc4.NewCipher(digest[:n])
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}
