// Package packets declares the auth protocol messages exchanged with the 1.12 client.
package packets

import "fmt"

// Command is the first byte of every auth packet.
type Command uint8

const (
	LogonChallengeType     Command = 0x00
	LogonProofType         Command = 0x01
	ReconnectChallengeType Command = 0x02
	ReconnectProofType     Command = 0x03
	RealmListType          Command = 0x10
	XferInitiateType       Command = 0x30
	XferDataType           Command = 0x31
	XferAcceptType         Command = 0x32
	XferResumeType         Command = 0x33
	XferCancelType         Command = 0x34
)

// Commands lists every command the auth server recognizes.
var Commands = []Command{
	LogonChallengeType,
	LogonProofType,
	ReconnectChallengeType,
	ReconnectProofType,
	RealmListType,
	XferInitiateType,
	XferDataType,
	XferAcceptType,
	XferResumeType,
	XferCancelType,
}

var commandNames = map[Command]string{
	LogonChallengeType:     "AUTH_LOGON_CHALLENGE",
	LogonProofType:         "AUTH_LOGON_PROOF",
	ReconnectChallengeType: "AUTH_RECONNECT_CHALLENGE",
	ReconnectProofType:     "AUTH_RECONNECT_PROOF",
	RealmListType:          "REALM_LIST",
	XferInitiateType:       "XFER_INITIATE",
	XferDataType:           "XFER_DATA",
	XferAcceptType:         "XFER_ACCEPT",
	XferResumeType:         "XFER_RESUME",
	XferCancelType:         "XFER_CANCEL",
}

// Known reports whether c is one of Commands.
func (c Command) Known() bool {
	_, ok := commandNames[c]
	return ok
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(c))
}

// Result is the status code the server answers a logon attempt with.
type Result uint8

const (
	ResultSuccess           Result = 0x00
	ResultUnknown0          Result = 0x01
	ResultUnknown1          Result = 0x02
	ResultBanned            Result = 0x03
	ResultUnknownAccount    Result = 0x04
	ResultIncorrectPassword Result = 0x05
	ResultAlreadyOnline     Result = 0x06
	ResultNoTime            Result = 0x07
	ResultDatabaseBusy      Result = 0x08
	ResultVersionInvalid    Result = 0x09
	ResultVersionUpdate     Result = 0x0A
	ResultInvalidServer     Result = 0x0B
	ResultSuspended         Result = 0x0C
	ResultNoAccess          Result = 0x0D
	ResultSuccessSurvey     Result = 0x0E
	ResultParentControl     Result = 0x0F
	ResultLockedEnforced    Result = 0x10
	ResultTrialEnded        Result = 0x11
	ResultUseBattleNet      Result = 0x12
)

var resultNames = []string{
	"SUCCESS",
	"UNKNOWN0",
	"UNKNOWN1",
	"BANNED",
	"UNKNOWN_ACCOUNT",
	"INCORRECT_PASSWORD",
	"ALREADY_ONLINE",
	"NO_TIME",
	"DB_BUSY",
	"VERSION_INVALID",
	"VERSION_UPDATE",
	"INVALID_SERVER",
	"SUSPENDED",
	"NO_ACCESS",
	"SUCCESS_SURVEY",
	"PARENT_CONTROL",
	"LOCKED_ENFORCED",
	"TRIAL_ENDED",
	"USE_BATTLENET",
}

// Results lists every defined result code in ascending order.
func Results() []Result {
	results := make([]Result, len(resultNames))
	for i := range results {
		results[i] = Result(i)
	}
	return results
}

func (r Result) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(r))
}
