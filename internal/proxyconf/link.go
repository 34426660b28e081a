// Package proxyconf renders client share links for proxy servers.
package proxyconf

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"xpanel/internal/domain"
)

// ErrUnsupportedProtocol is returned for servers with an unknown protocol
var ErrUnsupportedProtocol = errors.New("unsupported protocol")

const defaultSSMethod = "aes-256-gcm"

type vmessConfig struct {
	V    string `json:"v"`
	PS   string `json:"ps"`
	Add  string `json:"add"`
	Port int    `json:"port"`
	ID   string `json:"id"`
	Aid  string `json:"aid"`
	Scy  string `json:"scy"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	TLS  string `json:"tls"`
}

// Link returns the share link for srv authenticated by the user's token
func Link(srv *domain.Server, token string) (string, error) {
	switch srv.Protocol {
	case domain.ProtocolVMess:
		return vmessLink(srv, token)
	case domain.ProtocolVLESS:
		return uriLink("vless", srv, token, security(srv.TLS)), nil
	case domain.ProtocolTrojan:
		return uriLink("trojan", srv, token, "tls"), nil
	case domain.ProtocolShadowsocks:
		method := srv.Method
		if method == "" {
			method = defaultSSMethod
		}
		userInfo := base64.StdEncoding.EncodeToString([]byte(method + ":" + token))
		return "ss://" + userInfo + "@" + hostPort(srv) + "#" + url.PathEscape(srv.Name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProtocol, srv.Protocol)
}

func vmessLink(srv *domain.Server, token string) (string, error) {
	cfg := vmessConfig{
		V:    "2",
		PS:   srv.Name,
		Add:  srv.Host,
		Port: srv.Port,
		ID:   token,
		Aid:  "0",
		Scy:  "auto",
		Net:  "tcp",
		Type: "none",
		Path: srv.Path,
	}
	if srv.TLS {
		cfg.TLS = "tls"
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return "vmess://" + base64.StdEncoding.EncodeToString(b), nil
}

func uriLink(scheme string, srv *domain.Server, token, sec string) string {
	q := url.Values{}
	q.Set("type", "tcp")
	q.Set("security", sec)
	if srv.Path != "" {
		q.Set("path", srv.Path)
	}
	return scheme + "://" + url.PathEscape(token) + "@" + hostPort(srv) + "?" + q.Encode() + "#" + url.PathEscape(srv.Name)
}

func security(tls bool) string {
	if tls {
		return "tls"
	}
	return "none"
}

func hostPort(srv *domain.Server) string {
	return net.JoinHostPort(srv.Host, strconv.Itoa(srv.Port))
}

// Feed renders the base64 subscription document clients import: one share
// link per line. Servers with unsupported protocols are skipped.
func Feed(servers []domain.Server, token string) string {
	links := make([]string, 0, len(servers))
	for i := range servers {
		l, err := Link(&servers[i], token)
		if err != nil {
			continue
		}
		links = append(links, l)
	}
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(links, "\n")))
}
