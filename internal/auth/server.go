package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wowcore/wowcore/internal/core"
	"github.com/wowcore/wowcore/internal/core/codec"
	"github.com/wowcore/wowcore/internal/core/data"
	"github.com/wowcore/wowcore/internal/core/peer"
	"github.com/wowcore/wowcore/internal/frontend"
	"github.com/wowcore/wowcore/internal/packets"
)

// Server is the AUTH server implementation. It is the first server a client talks
// to: it checks the client build, the address and the account named in the logon
// challenge, and refuses the logon with the matching result code when any of them
// is unacceptable.
type Server struct {
	Name   string
	Config *core.Config
	Logger *logrus.Logger
	DB     *gorm.DB
	// Sender delivers replies. The controller points it at the frontend serving
	// this backend.
	Sender frontend.Sender

	sessions *sessionCache
	now      func() time.Time
}

func (s *Server) Identifier() string {
	return s.Name
}

func (s *Server) Init(_ context.Context) error {
	if s.Sender == nil {
		return errors.New("no sender configured")
	}
	if s.DB == nil {
		return errors.New("no database configured")
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.sessions = newSessionCache(s.Config.AuthServer.SessionTTL)
	return nil
}

// Admit refuses connections from banned addresses before they are registered.
func (s *Server) Admit(ctx context.Context, id peer.Identity) error {
	return VerifyAddress(s.DB.WithContext(ctx), id.Addr().String(), s.now())
}

func (s *Server) Connected(_ context.Context, id peer.Identity) bool {
	s.Logger.Debugf("[%s] new session for %s", s.Name, id)
	return true
}

func (s *Server) Disconnected(_ context.Context, id peer.Identity) bool {
	s.sessions.remove(id)
	return true
}

// Session returns the accepted logon challenge for id, if there is one.
func (s *Server) Session(id peer.Identity) (*Session, bool) {
	return s.sessions.get(id)
}

func (s *Server) Handle(ctx context.Context, id peer.Identity, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	switch cmd := packets.Command(data[0]); cmd {
	case packets.LogonChallengeType:
		pkt, err := packets.LogonChallengeSchema.Parse(data)
		if err != nil {
			return fmt.Errorf("error parsing %s: %w", cmd, err)
		}
		return s.handleLogonChallenge(ctx, id, pkt)
	default:
		if !cmd.Known() {
			return fmt.Errorf("%w: 0x%02X from %s", codec.ErrUnknownOpcode, data[0], id)
		}
		s.Logger.Debugf("[%s] ignoring %s from %s", s.Name, cmd, id)
	}

	return nil
}

func (s *Server) handleLogonChallenge(ctx context.Context, id peer.Identity, pkt *packets.LogonChallenge) error {
	if !s.Config.BuildAccepted(pkt.Build) {
		s.Logger.Infof("[%s] %s sent unsupported build %d (%s)", s.Name, id, pkt.Build, pkt.VersionString())
		return s.sendFailure(id, packets.ResultVersionInvalid)
	}

	db := s.DB.WithContext(ctx)
	if err := VerifyAddress(db, id.Addr().String(), s.now()); err != nil {
		return s.refuse(id, pkt, err)
	}
	account, err := VerifyAccount(db, pkt.AccountName)
	if err != nil {
		return s.refuse(id, pkt, err)
	}

	locale := pkt.Country
	if tag, err := ParseLocale(pkt.Country); err == nil {
		locale = tag.String()
	} else {
		s.Logger.Warnf("[%s] %s: %v", s.Name, id, err)
	}

	now := s.now()
	if err := data.RecordLogon(db, account, id.Addr().String(), locale, now); err != nil {
		s.Logger.Warnf("[%s] error recording logon for %s: %v", s.Name, account.Username, err)
	}

	s.sessions.put(id, &Session{
		AccountID:    account.ID,
		AccountName:  account.Username,
		Build:        pkt.Build,
		Version:      pkt.VersionString(),
		Platform:     pkt.Platform,
		OS:           pkt.OS,
		Locale:       locale,
		ChallengedAt: now,
	})

	s.Logger.WithFields(logrus.Fields{
		"account": account.Username,
		"build":   pkt.Build,
		"os":      pkt.OS,
		"locale":  locale,
	}).Infof("[%s] accepted logon challenge from %s", s.Name, id)
	return nil
}

func (s *Server) refuse(id peer.Identity, pkt *packets.LogonChallenge, err error) error {
	result := resultFor(err)
	if result == packets.ResultDatabaseBusy {
		s.Logger.Errorf("[%s] error checking logon challenge from %s: %v", s.Name, id, err)
	} else {
		s.Logger.Infof("[%s] refused %s from %s: %v", s.Name, pkt.AccountName, id, err)
	}
	return s.sendFailure(id, result)
}

func (s *Server) sendFailure(id peer.Identity, result packets.Result) error {
	reply, err := packets.NewLogonChallengeFailure(result)
	if err != nil {
		return err
	}
	return s.Sender.SendTo(id, reply)
}
