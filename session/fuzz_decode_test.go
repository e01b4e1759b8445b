package session

import "testing"

// FuzzDecode feeds arbitrary blobs to the record decoder. It must never panic, and every
// successful decode must re-encode.
func FuzzDecode(f *testing.F) {
	if seed, err := Encode(testRecord()); err == nil {
		f.Add(seed)
	}
	f.Add([]byte(""))
	f.Add([]byte("null"))
	f.Add([]byte(`{"token":1}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		r, err := Decode(data)
		if err != nil {
			return
		}
		if _, err := Encode(r); err != nil {
			t.Fatalf("re-encode decoded record: %v", err)
		}
	})
}
