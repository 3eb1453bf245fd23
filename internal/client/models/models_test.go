package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("owner")
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, r)

	r, err = ParseRole("renter")
	require.NoError(t, err)
	assert.Equal(t, RoleRenter, r)

	_, err = ParseRole("admin")
	require.Error(t, err)
}

func TestProfile_IsOwner(t *testing.T) {
	var nilProfile *Profile
	assert.False(t, nilProfile.IsOwner())
	assert.False(t, (&Profile{Role: RoleRenter}).IsOwner())
	assert.True(t, (&Profile{Role: RoleOwner}).IsOwner())
}

func TestParseFeatures(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Lift, Generator ,  Parking", []string{"Lift", "Generator", "Parking"}},
		{" , ,Gas,, ", []string{"Gas"}},
		{"", []string{}},
		{"Rooftop", []string{"Rooftop"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseFeatures(tt.in), "input %q", tt.in)
	}
}

func TestJoinFeatures_RoundTrip(t *testing.T) {
	in := []string{"Lift", "Generator"}
	assert.Equal(t, "Lift, Generator", JoinFeatures(in))
	assert.Equal(t, in, ParseFeatures(JoinFeatures(in)))
}

func TestListing_Gallery(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, (&Listing{Images: []string{"a", "b"}, Thumbnail: "a"}).Gallery())
	assert.Equal(t, []string{"t"}, (&Listing{Thumbnail: "t"}).Gallery())
	assert.Nil(t, (&Listing{}).Gallery())
}

func TestMessage_InvolvesAndCounterparty(t *testing.T) {
	m := &Message{SenderID: "alice", ReceiverID: "bob", ListingID: "l1"}

	assert.True(t, m.Involves("alice", "bob"))
	assert.True(t, m.Involves("bob", "alice"))
	assert.False(t, m.Involves("alice", "carol"))

	assert.Equal(t, "bob", m.Counterparty("alice"))
	assert.Equal(t, "alice", m.Counterparty("bob"))
}

func TestConversationKey_DirectionIndependent(t *testing.T) {
	k1 := NewConversationKey("l1", "alice", "bob")
	k2 := NewConversationKey("l1", "bob", "alice")
	assert.Equal(t, k1, k2)

	assert.True(t, k1.Matches(&Message{SenderID: "bob", ReceiverID: "alice", ListingID: "l1"}))
	assert.False(t, k1.Matches(&Message{SenderID: "bob", ReceiverID: "alice", ListingID: "l2"}))
	assert.False(t, k1.Matches(&Message{SenderID: "bob", ReceiverID: "carol", ListingID: "l1"}))
	assert.False(t, k1.Matches(nil))

	m := &Message{SenderID: "bob", ReceiverID: "alice", ListingID: "l1"}
	assert.Equal(t, k1, m.Key())
}
