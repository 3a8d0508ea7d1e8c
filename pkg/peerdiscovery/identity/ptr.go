package identity

import (
	"context"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/projectdiscovery/gologger"
)

const resolvConf = "/etc/resolv.conf"

// ptrResolver issues PTR queries directly against the system nameservers
// and falls back to the Go resolver when none are configured
type ptrResolver struct {
	client  *dns.Client
	servers []string
}

func newPTRResolver(timeout time.Duration) *ptrResolver {
	r := &ptrResolver{client: &dns.Client{Timeout: timeout}}
	config, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil {
		gologger.Debug().Msgf("identity: no resolver config, using system resolver: %v", err)
		return r
	}
	for _, server := range config.Servers {
		r.servers = append(r.servers, net.JoinHostPort(server, config.Port))
	}
	return r
}

// Lookup returns the first PTR target for ip
func (r *ptrResolver) Lookup(ctx context.Context, ip net.IP) string {
	if len(r.servers) == 0 {
		return systemLookup(ctx, ip)
	}

	name, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return ""
	}
	msg := new(dns.Msg)
	msg.SetQuestion(name, dns.TypePTR)
	msg.RecursionDesired = true

	for _, server := range r.servers {
		if ctx.Err() != nil {
			return ""
		}
		reply, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil || reply == nil || reply.Rcode != dns.RcodeSuccess {
			continue
		}
		if label := firstPTR(reply); label != "" {
			return label
		}
		// an authoritative empty answer is final
		return ""
	}
	return ""
}

func firstPTR(reply *dns.Msg) string {
	for _, rr := range reply.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return ptr.Ptr
		}
	}
	return ""
}

func systemLookup(ctx context.Context, ip net.IP) string {
	names, err := net.DefaultResolver.LookupAddr(ctx, ip.String())
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}
