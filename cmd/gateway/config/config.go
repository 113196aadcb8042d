package config

import (
	"gpibgateway/pkg/bus"
	"gpibgateway/pkg/gateway"
)

type Config struct {
	BusMgr     *bus.Manager
	GatewayMgr *gateway.Manager
	CertFile   string
	KeyFile    string
}
