// Package resuri parses the endpoint address forms the facade accepts:
// redis://, rediss://, redis-socket://, and redis-sentinel://.
package resuri

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pascaldekloe/redis/v2/restransport"
)

const defaultPort = "6379"
const defaultDialTimeout = time.Second

// Kind identifies which of the four accepted schemes a URI parsed to.
type Kind int

const (
	KindTCP Kind = iota
	KindTLS
	KindUnixSocket
	KindSentinel
)

// Endpoint is the parsed, ready-to-dial form of a URI: an address plus the
// Transport that can reach it. For KindSentinel, Addrs holds every
// sentinel address and MasterName/DB identify which master to resolve.
type Endpoint struct {
	Kind      Kind
	Addr      string // host:port, or filesystem path for KindUnixSocket
	Addrs     []string
	MasterName string
	DB        int64
	Password  string
	Transport restransport.Transport
}

// Parse interprets one of:
//
//	redis://[:password@]host[:port][/db]
//	rediss://[:password@]host[:port][/db]
//	redis-socket:///path/to.sock[?password=...]
//	redis-sentinel://master-id@sentinel1:port,sentinel2:port[/db]
func Parse(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("resuri: %w", err)
	}

	switch u.Scheme {
	case "redis":
		return parseTCP(u, KindTCP)
	case "rediss":
		return parseTCP(u, KindTLS)
	case "redis-socket":
		return parseSocket(u)
	case "redis-sentinel":
		return parseSentinel(u)
	default:
		return Endpoint{}, fmt.Errorf("resuri: unsupported scheme %q", u.Scheme)
	}
}

func parseTCP(u *url.URL, kind Kind) (Endpoint, error) {
	host := u.Hostname()
	if host == "" {
		return Endpoint{}, fmt.Errorf("resuri: %s: missing host", u.Scheme)
	}
	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	addr := host + ":" + port

	db, err := parseDB(u.Path)
	if err != nil {
		return Endpoint{}, err
	}

	ep := Endpoint{
		Kind:     kind,
		Addr:     addr,
		DB:       db,
		Password: passwordOf(u),
	}
	if kind == KindTLS {
		ep.Transport = restransport.TLS{Config: &tls.Config{ServerName: host}}
	} else {
		ep.Transport = restransport.TCP{}
	}
	return ep, nil
}

func parseSocket(u *url.URL) (Endpoint, error) {
	path := u.Path
	if path == "" {
		return Endpoint{}, fmt.Errorf("resuri: redis-socket: missing path")
	}
	return Endpoint{
		Kind:      KindUnixSocket,
		Addr:      path,
		Password:  u.Query().Get("password"),
		Transport: restransport.UnixSocket{},
	}, nil
}

func parseSentinel(u *url.URL) (Endpoint, error) {
	master := u.User.Username()
	if master == "" {
		return Endpoint{}, fmt.Errorf("resuri: redis-sentinel: missing master-id")
	}
	hostPart := u.Host
	if hostPart == "" {
		return Endpoint{}, fmt.Errorf("resuri: redis-sentinel: missing sentinel addresses")
	}
	var addrs []string
	for _, part := range strings.Split(hostPart, ",") {
		host, port, found := strings.Cut(part, ":")
		if !found {
			port = defaultPort
		}
		addrs = append(addrs, host+":"+port)
	}
	db, err := parseDB(u.Path)
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{
		Kind:       KindSentinel,
		Addrs:      addrs,
		MasterName: master,
		DB:         db,
		Transport:  restransport.TCP{},
	}, nil
}

func passwordOf(u *url.URL) string {
	if u.User == nil {
		return ""
	}
	pw, _ := u.User.Password()
	return pw
}

func parseDB(path string) (int64, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return 0, nil
	}
	db, err := strconv.ParseInt(path, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("resuri: invalid db selector %q: %w", path, err)
	}
	return db, nil
}

// DefaultDialTimeout is applied by the facade when EndpointConfig.DialTimeout
// is left zero and a URI (rather than explicit config) drives construction.
func DefaultDialTimeout() time.Duration { return defaultDialTimeout }
