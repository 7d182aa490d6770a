package fixclient

import "github.com/Charliesj0129/shijim/internal/constants"

// MDSession adapts a FixApp's market-data request helpers to
// gateway.Session, so the subscription manager can drive a real broker
// FIX connection the same way it drives a fake one in tests. Login and
// Logout are intentionally no-ops: quickfix.Initiator owns the single
// shared TCP connection and logon handshake for every configured
// session, started once for the whole pool rather than per session.
type MDSession struct {
	app *FixApp
}

func NewMDSession(app *FixApp) *MDSession {
	return &MDSession{app: app}
}

func (s *MDSession) Login() error  { return nil }
func (s *MDSession) Logout() error { return nil }

func (s *MDSession) SubscribeTick(code string, _ string) error {
	s.app.sendMarketDataRequest([]string{code}, constants.SubscriptionRequestTypeSubscribe, "tick subscribe")
	return nil
}

func (s *MDSession) SubscribeBook(code string, _ string) error {
	s.app.sendMarketDataRequestWithOptions(
		[]string{code},
		constants.SubscriptionRequestTypeSubscribe,
		"0",
		[]string{constants.MdEntryTypeBid, constants.MdEntryTypeOffer},
		"book subscribe",
	)
	return nil
}

func (s *MDSession) UnsubscribeTick(code string, _ string) error {
	s.app.sendUnsubscribeBySymbol(code)
	return nil
}

func (s *MDSession) UnsubscribeBook(code string, _ string) error {
	s.app.sendUnsubscribeBySymbol(code)
	return nil
}
