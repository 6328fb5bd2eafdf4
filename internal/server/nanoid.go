package server

import (
	"crypto/rand"
	"math/big"
)

// Handler IDs use an unambiguous alphanumeric alphabet. Ten characters of
// 62 symbols carry ~59.5 bits, enough that collisions within one server's
// lifetime are negligible.
const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 10
)

// newHandlerID returns a fresh random handler identifier.
func newHandlerID() string {
	max := big.NewInt(int64(len(idAlphabet)))
	buf := make([]byte, idLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform's entropy source
			// is broken; nothing sensible can continue past that.
			panic("reading random bytes: " + err.Error())
		}
		buf[i] = idAlphabet[n.Int64()]
	}
	return string(buf)
}
