package domain

import "net/netip"

// ChannelKind identifies the protocol surface a request arrived on.
type ChannelKind string

const (
	ChannelREST      ChannelKind = "rest"
	ChannelTransport ChannelKind = "transport"
)

// RequestProvenance describes where an authentication attempt came from.
type RequestProvenance struct {
	RemoteAddr netip.AddrPort
	Channel    ChannelKind
}

// IsLocalREST reports whether the request originated on this host and was
// received over the REST surface. Internal transport traffic never qualifies,
// even from loopback.
func (p RequestProvenance) IsLocalREST() bool {
	if p.Channel != ChannelREST || !p.RemoteAddr.IsValid() {
		return false
	}
	return p.RemoteAddr.Addr().Unmap().IsLoopback()
}
