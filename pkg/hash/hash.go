// Package hash computes message digests for the algorithm names used
// by 18013-5 MSOs.
package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
)

const (
	SHA256 = "SHA-256"
	SHA384 = "SHA-384"
	SHA512 = "SHA-512"
)

func Digest(message []byte, alg string) ([]byte, error) {
	var hasher hash.Hash
	switch alg {
	case SHA256:
		hasher = sha256.New()
	case SHA384:
		hasher = sha512.New384()
	case SHA512:
		hasher = sha512.New()
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %s", alg)
	}
	hasher.Write(message)
	return hasher.Sum(nil), nil
}
