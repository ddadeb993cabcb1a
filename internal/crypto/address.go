package crypto

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"golang.org/x/crypto/ripemd160"

	"github.com/screa/bc1q-miner/pkg/types"
)

const (
	// Bech32 alphabet in encoding order (BIP-173)
	Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

	// RequiredPrefix is the fixed leading segment of every mainnet P2WPKH address:
	// HRP "bc", separator '1', witness version 0 encoded as 'q'.
	RequiredPrefix = "bc1q"
)

// Generator produces random mainnet P2WPKH candidates.
// It holds no mutable state and is safe for concurrent use.
type Generator struct {
	params *chaincfg.Params
}

// NewGenerator creates a generator bound to Bitcoin mainnet.
func NewGenerator() *Generator {
	return &Generator{params: &chaincfg.MainNetParams}
}

// Generate draws a fresh private key and derives its bech32 address.
func (g *Generator) Generate() (types.Candidate, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return types.Candidate{}, fmt.Errorf("generate private key: %w", err)
	}

	address, err := P2WPKHAddress(key.PubKey(), g.params)
	if err != nil {
		return types.Candidate{}, err
	}

	return types.Candidate{PrivateKey: key, Address: address}, nil
}

// P2WPKHAddress encodes bech32(HRP, 0, HASH160(compressed pubkey)).
func P2WPKHAddress(pubKey *btcec.PublicKey, params *chaincfg.Params) (string, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash160(pubKey.SerializeCompressed()), params)
	if err != nil {
		return "", fmt.Errorf("encode witness address: %w", err)
	}
	return addr.EncodeAddress(), nil
}

// EncodeWIF serializes a private key in compressed mainnet WIF (K.../L...).
func EncodeWIF(key *btcec.PrivateKey) (string, error) {
	wif, err := btcutil.NewWIF(key, &chaincfg.MainNetParams, true)
	if err != nil {
		return "", fmt.Errorf("encode wif: %w", err)
	}
	return wif.String(), nil
}

// hash160 computes RIPEMD160(SHA256(data))
func hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

// IsValidChar reports whether c belongs to the bech32 alphabet.
// Uppercase is rejected: matching is byte-for-byte against lowercase addresses.
func IsValidChar(c rune) bool {
	return strings.ContainsRune(Charset, c)
}

// FirstInvalidChar returns the first rune of s outside the alphabet.
func FirstInvalidChar(s string) (rune, bool) {
	i := FirstInvalidIndex(s)
	if i < 0 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r, true
}

// FirstInvalidIndex returns the byte offset of the first character of s
// outside the alphabet, or -1. Bytes that are not valid UTF-8 count as invalid.
func FirstInvalidIndex(s string) int {
	for i, c := range s {
		if !IsValidChar(c) {
			return i
		}
	}
	return -1
}

// EstimateSearchSpace returns 32^n where n is the number of characters
// following RequiredPrefix. It is an expectation, not a bound.
func EstimateSearchSpace(prefix string) float64 {
	free := len(strings.TrimPrefix(prefix, RequiredPrefix))
	return math.Pow(float64(len(Charset)), float64(free))
}
