package wxcc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// Interface compliance (compile-time assertion)
var _ core.Connector = (*Connector)(nil)

func TestFormat10DPhoneNumber(t *testing.T) {
	assert.Equal(t, "4165551234", Format10DPhoneNumber("+1 (416) 555-1234"))
	assert.Equal(t, "4165551234", Format10DPhoneNumber("14165551234"))
	assert.Equal(t, "4165551234", Format10DPhoneNumber("4165551234"))
	assert.Equal(t, "551234", Format10DPhoneNumber("55-12-34"))
	assert.Equal(t, "", Format10DPhoneNumber(""))
}

func TestSeedSession_PhoneChannel(t *testing.T) {
	s := core.NewSession("s1", "common", "welcome")
	New().SeedSession(s, core.ChannelInfo{
		Channel:       ChannelPhone,
		CallingNumber: "+14165551234",
		CalledNumber:  "+18005550000",
	})

	assert.Equal(t, ChannelPhone, s.Channel)
	assert.Equal(t, "+14165551234", s.SmsNumber)
	assert.Equal(t, "sms", s.SecondChannel)
	assert.Equal(t, "+14165551234", s.IdentityAlias)
}

func TestSeedSession_WebChannelFallsBackToEmail(t *testing.T) {
	s := core.NewSession("s1", "common", "welcome")
	New().SeedSession(s, core.ChannelInfo{
		Channel: ChannelWeb,
		Mail:    "maria@example.com",
	})

	assert.Equal(t, "email", s.SecondChannel)
	assert.Equal(t, "maria@example.com", s.IdentityAlias)
	assert.Equal(t, "maria@example.com", SecondChannelAddress(s))
}

func TestSecondChannelAddress_Sms(t *testing.T) {
	s := core.NewSession("s1", "common")
	s.SmsNumber = "+14165551234"
	assert.Equal(t, "+14165551234", SecondChannelAddress(s))
}
