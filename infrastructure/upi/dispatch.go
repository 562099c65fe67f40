package upi

// ActionKind says how the client should proceed with a payment.
type ActionKind int

const (
	// ActionNavigate sends the browser straight to the deep-link.
	ActionNavigate ActionKind = iota + 1
	// ActionShowQR opens the QR modal instead.
	ActionShowQR
)

func (k ActionKind) String() string {
	switch k {
	case ActionNavigate:
		return "navigate"
	case ActionShowQR:
		return "show_qr"
	default:
		return "unknown"
	}
}

// Action is the outcome of InitiatePayment. It is fire-and-forget: nothing
// confirms that the payment happened.
type Action struct {
	Kind       ActionKind
	DeepLink   string
	QRImageURL string
}

// Dispatcher turns a payment request into an Action.
type Dispatcher struct {
	Detector DeviceDetector
	QR       QRSource
}

func NewDispatcher(detector DeviceDetector, qr QRSource) *Dispatcher {
	if detector == nil {
		detector = NewUserAgentDetector()
	}
	if qr == nil {
		qr = QuickChartSource(QuickChartURL, DefaultQRSize)
	}
	return &Dispatcher{Detector: detector, QR: qr}
}

func (d *Dispatcher) InitiatePayment(userAgent, upiID string, amount int64, payeeName string) Action {
	link := NewDeepLink(upiID, amount, payeeName)
	if d.Detector.IsMobile(userAgent) {
		return Action{Kind: ActionNavigate, DeepLink: link.String()}
	}
	return Action{
		Kind:       ActionShowQR,
		DeepLink:   link.String(),
		QRImageURL: d.QR(link),
	}
}
