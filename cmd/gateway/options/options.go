package options

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"gpibgateway/cmd/gateway/config"
	"gpibgateway/pkg/bus"
	"gpibgateway/pkg/gateway"
	"gpibgateway/pkg/generic"
	baseoptions "gpibgateway/pkg/generic/options"
	"gpibgateway/pkg/storage"
)

type Options struct {
	Port       string        `json:"port"`
	Wait       time.Duration `json:"graceful-timeout"`
	MqttBroker string        `json:"mqtt-broker"`
	baseoptions.BaseOptions
}

const (
	_defaultPort       = "32220"
	_defaultWait       = 15 * time.Second
	_defaultMqttBroker = "tcp://127.0.0.1:1883"

	mqttConnectTimeout = 3 * time.Second
)

func NewDefaultOptions() *Options {
	return &Options{
		Port:        _defaultPort,
		Wait:        _defaultWait,
		MqttBroker:  _defaultMqttBroker,
		BaseOptions: baseoptions.NewDefaultBaseOptions(),
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Port, "port", "P", o.Port, "Port exposed")
	fs.DurationVar(&o.Wait, "graceful-timeout", o.Wait, "The duration for which the server gracefully wait for existing connections to finish - e.g. 15s or 1m")
	fs.StringVar(&o.MqttBroker, "mqtt-broker", o.MqttBroker, "The MQTT broker URI collected readings are published to - e.g. tcp://127.0.0.1:1883")
}

func (o *Options) Config(stopCh <-chan struct{}) (*config.Config, error) {
	c := &config.Config{}

	gatewayMgr := gateway.NewGatewayManager(stopCh)
	gatewayMgr.Init()
	c.GatewayMgr = gatewayMgr

	meta, _ := gatewayMgr.GetGatewayMeta()

	mqttClient := mqtt.NewClient(mqtt.NewClientOptions().
		AddBroker(o.MqttBroker).
		SetClientID(fmt.Sprintf("gpibgateway-%s", meta.ID)).
		SetAutoReconnect(true))
	if token := mqttClient.Connect(); !token.WaitTimeout(mqttConnectTimeout) || token.Error() != nil {
		klog.V(1).InfoS("Failed to connect MQTT broker,publishing is degraded until reconnect", "broker", o.MqttBroker, "err", token.Error())
	}

	group := storage.StoreGroupToString[storage.StoreGroupBus]
	instrumentStore, _ := generic.NewStore(group, storage.Instruments, generic.InstrumentTypeObjectMap)
	adapterStore, _ := generic.NewStore(group, storage.Adapters, generic.AdapterTypeObjectMap)

	busMgr := bus.NewManager(instrumentStore, adapterStore, mqttClient, meta, stopCh)
	busMgr.Init()
	c.BusMgr = busMgr
	gatewayMgr.SetStatisticsFunc(busMgr.Counts)

	return c, nil
}
