package packets

import (
	"fmt"

	"github.com/wowcore/wowcore/internal/core/codec"
)

// LogonChallenge is the first packet a client sends after connecting.
//
// Platform, OS and Country are sent as reversed four character codes, so the x86
// client sends "68x\0" for "x86" and "SUne" for "enUS".
type LogonChallenge struct {
	Command  Command
	Error    uint8
	Size     uint16
	GameName string
	Version  []uint8
	Build    uint16
	Platform string
	OS       string
	Country  string
	// Minutes offset from UTC.
	TimezoneBias uint32
	IP           []uint8
	AccountName  string
}

// VersionString formats Version as it appears in the client, e.g. "1.12.1".
func (p *LogonChallenge) VersionString() string {
	if len(p.Version) != 3 {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", p.Version[0], p.Version[1], p.Version[2])
}

// LogonChallengeHeaderSize is the number of bytes that precede the value of Size.
const LogonChallengeHeaderSize = 4

var LogonChallengeSchema = codec.MustSchema[LogonChallenge]("LogonChallenge",
	codec.Field("command", func(p *LogonChallenge) *Command { return &p.Command }, codec.Enum(Commands)),
	codec.Field("error", func(p *LogonChallenge) *uint8 { return &p.Error }, codec.Uint8()),
	codec.Field("size", func(p *LogonChallenge) *uint16 { return &p.Size }, codec.Uint16()),
	codec.Field("game_name", func(p *LogonChallenge) *string { return &p.GameName },
		codec.String(codec.FixedLength(4), codec.TrimPadding)),
	codec.Field("version", func(p *LogonChallenge) *[]uint8 { return &p.Version },
		codec.Array(codec.Uint8(), codec.Count(3))),
	codec.Field("build", func(p *LogonChallenge) *uint16 { return &p.Build }, codec.Uint16()),
	codec.Field("platform", func(p *LogonChallenge) *string { return &p.Platform },
		codec.String(codec.FixedLength(4), codec.Reversed, codec.TrimPadding)),
	codec.Field("os", func(p *LogonChallenge) *string { return &p.OS },
		codec.String(codec.FixedLength(4), codec.Reversed, codec.TrimPadding)),
	codec.Field("country", func(p *LogonChallenge) *string { return &p.Country },
		codec.String(codec.FixedLength(4), codec.Reversed, codec.TrimPadding)),
	codec.Field("timezone_bias", func(p *LogonChallenge) *uint32 { return &p.TimezoneBias }, codec.Uint32()),
	codec.Field("ip", func(p *LogonChallenge) *[]uint8 { return &p.IP },
		codec.Array(codec.Uint8(), codec.Count(4))),
	codec.Field("account_name", func(p *LogonChallenge) *string { return &p.AccountName },
		codec.String(codec.LengthPrefixed)),
)

// LogonChallengeFailure is the server's answer to a LogonChallenge that was refused.
type LogonChallengeFailure struct {
	Command Command
	Padding uint8
	Result  Result
}

var LogonChallengeFailureSchema = codec.MustSchema[LogonChallengeFailure]("LogonChallengeFailure",
	codec.Field("command", func(p *LogonChallengeFailure) *Command { return &p.Command }, codec.Enum(Commands)),
	codec.Field("padding", func(p *LogonChallengeFailure) *uint8 { return &p.Padding }, codec.Uint8()),
	codec.Field("result", func(p *LogonChallengeFailure) *Result { return &p.Result }, codec.Enum(Results())),
)

// NewLogonChallengeFailure builds the reply refusing a logon challenge with result.
func NewLogonChallengeFailure(result Result) ([]byte, error) {
	return LogonChallengeFailureSchema.Build(&LogonChallengeFailure{
		Command: LogonChallengeType,
		Result:  result,
	})
}
