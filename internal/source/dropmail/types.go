package dropmail

// GraphQL response shapes for the three operations the client uses.
// Pointers distinguish an absent object from an empty one.

type addressPayload struct {
	Address string `json:"address"`
}

type sessionPayload struct {
	ID        string           `json:"id"`
	Addresses []addressPayload `json:"addresses"`
}

type introduceSessionData struct {
	IntroduceSession *sessionPayload `json:"introduceSession"`
}

type introduceAddressData struct {
	IntroduceAddress *addressPayload `json:"introduceAddress"`
}

type mailPayload struct {
	ID            string `json:"id"`
	FromAddr      string `json:"fromAddr"`
	HeaderSubject string `json:"headerSubject"`
	Text          string `json:"text"`
	HTML          string `json:"html"`
	DownloadURL   string `json:"downloadUrl"`
	ReceivedAt    string `json:"receivedAt"`
}

type sessionMails struct {
	Mails []mailPayload `json:"mails"`
}

type sessionData struct {
	Session *sessionMails `json:"session"`
}
