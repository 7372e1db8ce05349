package hash

import (
	"encoding/hex"
	"testing"
)

func TestDigest(t *testing.T) {
	message := []byte("abc")
	tests := []struct {
		alg  string
		want string
	}{
		{
			alg:  SHA256,
			want: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			alg:  SHA384,
			want: "cb00753f45a35e8bb5a03d699ac65007272c32ab0eded1631a8b605a43ff5bed8086072ba1e7cc2358baeca134c825a7",
		},
		{
			alg:  SHA512,
			want: "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f",
		},
	}
	for _, tt := range tests {
		t.Run(tt.alg, func(t *testing.T) {
			got, err := Digest(message, tt.alg)
			if err != nil {
				t.Fatal(err)
			}
			if hex.EncodeToString(got) != tt.want {
				t.Errorf("digest = %x, want %s", got, tt.want)
			}
		})
	}
}

func TestDigestUnsupportedAlgorithm(t *testing.T) {
	if _, err := Digest([]byte("abc"), "MD5"); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}
