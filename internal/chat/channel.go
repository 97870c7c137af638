package chat

// DeriveChannelID names the implicit two-party channel for a pair of
// principals: the lexicographically smaller id first, joined by an
// underscore. Symmetric by construction, so both parties resolve the same
// channel without coordination. Principal ids are validated at the API
// boundary to exclude the separator, which keeps the derivation
// collision-free.
//
// A principal cannot channel with itself; calling this with equal ids is a
// programming error, not a runtime condition.
func DeriveChannelID(a, b string) string {
	if a == b {
		panic("chat: channel requires two distinct principals")
	}
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}
