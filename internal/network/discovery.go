package network

import (
	"net"

	log "github.com/sirupsen/logrus"
)

// LocalIPv4s lists the IPv4 addresses of every interface that is up,
// skipping loopback and link-local ones.
func LocalIPv4s() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ip := usableIPv4(a); ip != nil {
				out = append(out, ip)
			}
		}
	}
	return out, nil
}

func usableIPv4(a net.Addr) net.IP {
	var ip net.IP
	switch v := a.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	}
	ip = ip.To4()
	if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return nil
	}
	return ip
}

// ReachableAddrs returns host:port pairs a sender could use for a receiver
// bound to addr. A receiver bound to a specific address is reachable only
// there.
func ReachableAddrs(addr net.Addr) ([]string, error) {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil, err
	}
	if ip := net.ParseIP(host); ip != nil && !ip.IsUnspecified() {
		return []string{addr.String()}, nil
	}

	ips, err := LocalIPv4s()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, net.JoinHostPort(ip.String(), port))
	}
	return out, nil
}

// LogReachableAddrs prints where a receiver bound to addr can be reached, so
// remote_ip is easy to fill in on the sender.
func LogReachableAddrs(addr net.Addr) {
	addrs, err := ReachableAddrs(addr)
	if err != nil {
		log.Warnf("Network: could not list interfaces: %v", err)
		return
	}
	for _, a := range addrs {
		log.Printf("Network: reachable at %s", a)
	}
}
