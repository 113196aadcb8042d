package gateway

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"k8s.io/klog/v2"

	"gpibgateway/pkg/runtime"
	"gpibgateway/pkg/storage"
	"gpibgateway/pkg/utils/randutil"
	"gpibgateway/pkg/utils/uuidutil"
)

type Option func(*Manager)

// StatisticsFunc reports the number of managed adapters and instruments.
type StatisticsFunc func() (adapters, instruments int)

type Manager struct {
	gatewayMeta *GatewayMeta
	statistics  StatisticsFunc
	stopCh      <-chan struct{}
}

func NewGatewayManager(stop <-chan struct{}, opts ...Option) *Manager {
	m := &Manager{
		gatewayMeta: &GatewayMeta{},
		stopCh:      stop,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Init() {
	client := &storage.FsClient{}
	client.Init(storage.StoreGroupGateway)

	gd, err := client.Get(gateway)
	if err != nil && os.IsNotExist(err) {
		m.gatewayMeta = &GatewayMeta{
			Secret: "",
			ObjectMeta: runtime.ObjectMeta{
				Name:    "gpibgateway",
				ID:      uuidutil.UUID(),
				Version: strconv.FormatUint(randutil.Uint64n(), 10),
				ModTime: time.Now(),
			},
		}
		klog.V(3).InfoS("Gateway information not exist,been created automatically", "gatewayId", m.gatewayMeta.ID)
		if _, err := client.Create(gateway, m.gatewayMeta); err != nil {
			klog.V(2).InfoS("Failed to create gateway information", "err", err)
		}
	} else if err = json.NewDecoder(bytes.NewReader(gd.([]byte))).Decode(m.gatewayMeta); err != nil {
		klog.V(2).InfoS("Failed to unmarshal gateway information", "err", err)
		return
	}
}

func (m *Manager) GetGatewayMeta() (*GatewayMeta, error) {
	return m.gatewayMeta, nil
}

// SetStatisticsFunc binds the resource counter after the bus manager is up.
func (m *Manager) SetStatisticsFunc(f StatisticsFunc) {
	m.statistics = f
}

func (m *Manager) Statistics() (adapters, instruments int) {
	if m.statistics == nil {
		return 0, 0
	}
	return m.statistics()
}
