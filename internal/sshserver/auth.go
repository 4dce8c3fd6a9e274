// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/charmbracelet/ssh"
)

// tokenKey is the ssh.Context key holding the authenticated *Token.
const tokenKey = "vosemu.token"

// Token is an access token accepted as an SSH password.
type Token struct {
	Value     string
	Label     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer valid at now.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// GenerateToken issues a new access token. label identifies the holder in
// logs.
func (s *Server) GenerateToken(label string) (*Token, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.clock.Now()
	token := &Token{
		Value:     hex.EncodeToString(raw),
		Label:     label,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TokenTTL),
	}

	s.tokenMu.Lock()
	s.tokens[token.Value] = token
	s.tokenMu.Unlock()

	s.logger.Debug("generated token", "label", label, "expires", token.ExpiresAt)
	return token, nil
}

// ValidateToken returns the token with the given value if it exists and has
// not expired. Expired tokens are dropped.
func (s *Server) ValidateToken(value string) (*Token, bool) {
	s.tokenMu.RLock()
	var token *Token
	for v, t := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(v), []byte(value)) == 1 {
			token = t
		}
	}
	s.tokenMu.RUnlock()

	if token == nil {
		return nil, false
	}
	if token.Expired(s.clock.Now()) {
		s.RevokeToken(token.Value)
		return nil, false
	}
	return token, true
}

// RevokeToken invalidates a token. Open connections are not affected.
func (s *Server) RevokeToken(value string) {
	s.tokenMu.Lock()
	delete(s.tokens, value)
	s.tokenMu.Unlock()
}

// pruneTokens removes every expired token.
func (s *Server) pruneTokens() {
	now := s.clock.Now()
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	for value, token := range s.tokens {
		if token.Expired(now) {
			delete(s.tokens, value)
		}
	}
}

// cleanupExpiredTokens prunes tokens periodically until the server stops.
func (s *Server) cleanupExpiredTokens() {
	defer s.life.wg.Done()

	ticker := time.NewTicker(s.cfg.TokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.life.ctx.Done():
			return
		case <-ticker.C:
			s.pruneTokens()
		}
	}
}

func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	token, ok := s.ValidateToken(password)
	if !ok {
		s.logger.Warn("rejected token", "user", ctx.User(), "remote", ctx.RemoteAddr())
		return false
	}
	ctx.SetValue(tokenKey, token)
	s.logger.Debug("authenticated", "user", ctx.User(), "label", token.Label)
	return true
}

// publicKeyHandler rejects every key; only tokens are accepted.
func (s *Server) publicKeyHandler(ssh.Context, ssh.PublicKey) bool {
	return false
}
