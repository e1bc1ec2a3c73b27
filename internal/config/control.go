package config

//
// control.go
// Copyright (C) 2025 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-relay/internal/aerr"
)

// ControlConf configure local control server started by `play` command.
type ControlConf struct {
	// Address is listen address; empty disable control server.
	Address string

	DebugFlags    DebugFlags
	EnableMetrics bool
	AccessList    string

	accessList *AccessList
}

func (c *ControlConf) Validate() error {
	if c.Address == "" {
		return nil
	}

	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return aerr.ErrValidation.WithUserMsg("invalid control address %q: %s", c.Address, err)
	}

	if c.AccessList != "" {
		al, err := NewAccessList(c.AccessList)
		if err != nil {
			return fmt.Errorf("validate control access list failed: %w", err)
		}

		c.accessList = al

		log.Logger.Debug().Object("controlAccessList", al).Msg("control access list configured")
	}

	return nil
}

func (c *ControlConf) Enabled() bool {
	return c.Address != ""
}

// AuthRequest check request remote address is it allowed to control player
// and access debug data.
// Return:
//   - bool - is access allowed
//   - bool - is access to sensitive data allowed.
//
// Used for /player, /debug (also traces and events) and /metrics endpoints.
func (c *ControlConf) AuthRequest(req *http.Request) (bool, bool) {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}

	if host == "localhost" {
		return true, true
	}

	ip := net.ParseIP(host)

	switch {
	case ip == nil:
		return false, false
	case ip.IsLoopback():
		// always allow loobback
		return true, true
	case c.accessList != nil:
		return c.accessList.HasAccess(ip), false
	default:
		return false, false
	}
}

//-------------------------------------------------------------

type AccessList struct {
	AllowedIPs  []net.IP
	AllowedNets []*net.IPNet
}

func NewAccessList(accesslist string) (*AccessList, error) {
	var (
		ips  []net.IP
		nets []*net.IPNet
	)

	for entry := range strings.SplitSeq(accesslist, ",") {
		entry = strings.TrimSpace(entry)

		if strings.Contains(entry, "/") {
			_, n, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, aerr.ErrValidation.WithUserMsg(
					"invalid entry in access list: entry=%q error=%q", entry, err)
			}

			nets = append(nets, n)
		} else {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, aerr.ErrValidation.WithUserMsg("invalid entry in access list: entry=%q", entry)
			}

			ips = append(ips, ip)
		}
	}

	return &AccessList{
		AllowedIPs:  ips,
		AllowedNets: nets,
	}, nil
}

func (a *AccessList) HasAccess(ip net.IP) bool {
	for _, i := range a.AllowedIPs {
		if i.Equal(ip) {
			return true
		}
	}

	for _, n := range a.AllowedNets {
		if n.Contains(ip) {
			return true
		}
	}

	return false
}

func (a *AccessList) MarshalZerologObject(event *zerolog.Event) {
	event.Interface("allowed_ips", a.AllowedIPs).
		Interface("allowed_nets", a.AllowedNets)
}
