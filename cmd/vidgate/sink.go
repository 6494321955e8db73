package main

import "log/slog"

// logSink surfaces push-driven view transitions as log lines. A storefront
// embedding the engine swaps this for real navigation.
type logSink struct {
	logger *slog.Logger
}

func (s *logSink) PaymentError(message string) {
	s.logger.Error("payment error view", "message", message)
}

func (s *logSink) Welcome() {
	s.logger.Info("welcome view")
}

func (s *logSink) RequiresAction(redirectURL string) {
	s.logger.Info("payment requires action", "redirect_url", redirectURL)
}

func (s *logSink) SimultaneousLogins() {
	s.logger.Warn("simultaneous logins view")
}
