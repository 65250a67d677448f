// Package id generates time-sortable identifiers for positions and trades.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic keeps ids created in the same millisecond increasing.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID for the current time.
func New() string {
	return At(time.Now())
}

// At returns a ULID stamped with t. Replays use the bar time so ids sort
// in simulated order.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	v, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		// entropy exhausted within one millisecond or t before the epoch
		v = ulid.Make()
	}
	return v.String()
}

// Time extracts the timestamp embedded in a ULID string.
func Time(s string) (time.Time, error) {
	v, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(v.Time()), nil
}
