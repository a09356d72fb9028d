package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const certificateSuffixLength = 9

// CertificateIdentity is the public number and verification hash of a certificate.
type CertificateIdentity struct {
	Number string
	Hash   string
}

// IdentityGenerator produces certificate identities.
type IdentityGenerator interface {
	Next(studentID uint) CertificateIdentity
}

type randomIdentityGenerator struct {
	now    func() time.Time
	random func() uuid.UUID
}

// NewIdentityGenerator builds numbers as CERT-<unix millis>-<9 base36 chars>.
func NewIdentityGenerator() IdentityGenerator {
	return &randomIdentityGenerator{now: time.Now, random: uuid.New}
}

func (g *randomIdentityGenerator) Next(studentID uint) CertificateIdentity {
	number := fmt.Sprintf("CERT-%d-%s", g.now().UnixMilli(), base36Suffix(g.random()))
	return CertificateIdentity{Number: number, Hash: VerificationHash(number, studentID)}
}

// VerificationHash is hex(SHA-256(number + student id)).
func VerificationHash(number string, studentID uint) string {
	sum := sha256.Sum256([]byte(number + strconv.FormatUint(uint64(studentID), 10)))
	return hex.EncodeToString(sum[:])
}

func base36Suffix(id uuid.UUID) string {
	encoded := strings.ToUpper(new(big.Int).SetBytes(id[:]).Text(36))
	if len(encoded) < certificateSuffixLength {
		encoded = strings.Repeat("0", certificateSuffixLength-len(encoded)) + encoded
	}
	return encoded[len(encoded)-certificateSuffixLength:]
}
