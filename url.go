package rsdb

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	// Scheme is the only accepted connection string scheme.
	Scheme = "rsdb"

	DefaultHost = "localhost"
	DefaultPort = 1935
)

// URL is a parsed rsdb connection string:
//
//	rsdb://[user[:password]@][host][:port][/dbname]
type URL struct {
	Scheme   string
	User     string
	Password string
	Host     string
	Port     int
	DBName   string // empty when the path does not name a database
}

// ParseURL parses a connection string. The host defaults to localhost and the
// port to 1935. The path selects a database only when it is a single
// non-empty segment.
func ParseURL(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &InvalidURLError{URL: raw, Reason: err.Error()}
	}
	if u.Scheme != Scheme {
		return nil, &InvalidURLError{URL: raw, Reason: "scheme must be " + Scheme}
	}

	out := &URL{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   DefaultPort,
	}
	if out.Host == "" {
		out.Host = DefaultHost
	}
	if u.User != nil {
		out.User = u.User.Username()
		out.Password, _ = u.User.Password()
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, &InvalidURLError{URL: raw, Reason: "invalid port"}
		}
		out.Port = port
	}

	if name, ok := strings.CutPrefix(u.Path, "/"); ok {
		name = strings.TrimSpace(name)
		if name != "" && !strings.Contains(name, "/") {
			out.DBName = name
		}
	}

	return out, nil
}

// Addr returns the host:port to dial.
func (u *URL) Addr() string {
	return net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
}

// String formats the URL back into a connection string. The password is
// never included.
func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString("://")
	if u.User != "" {
		b.WriteString(url.User(u.User).String())
		b.WriteByte('@')
	}
	b.WriteString(u.Addr())
	if u.DBName != "" {
		b.WriteByte('/')
		b.WriteString(u.DBName)
	}
	return b.String()
}
