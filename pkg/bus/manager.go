package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"k8s.io/klog/v2"

	"gpibgateway/pkg/apis"
	"gpibgateway/pkg/apis/response"
	"gpibgateway/pkg/gateway"
	"gpibgateway/pkg/generic"
	"gpibgateway/pkg/instrument"
	"gpibgateway/pkg/monitor"
	"gpibgateway/pkg/prologix"
	"gpibgateway/pkg/runtime"
	"gpibgateway/pkg/transport"
	"gpibgateway/pkg/utils/randutil"
	"gpibgateway/pkg/utils/uuidutil"
	v1 "gpibgateway/pkg/v1"
)

type Option func(*Manager)

// WithCloser registers extra teardown run at the tail of Shutdown, last
// registered first.
func WithCloser(lc runtime.LabeledCloser) Option {
	return func(m *Manager) {
		m.closers = append(m.closers, lc)
	}
}

// Manager owns the live bus state: one Prologix session per stored adapter
// and one attached handle per stored instrument. All bus traffic of an
// adapter funnels through its single controller session.
type Manager struct {
	gatewayMeta        *gateway.GatewayMeta
	mqttClient         mqtt.Client
	mu                 *sync.Mutex
	instrumentManager  map[string]InstrumentManager
	instruments        *sync.Map
	adapters           *sync.Map
	heartBeatAdapters  *sync.Map
	controllers        map[string]*prologix.Controller
	handles            map[string]*instrument.Instrument
	pollers            map[string]runtime.Poller
	pollerReturnCh     map[string]chan *runtime.PollResult
	instrumentStore    *generic.Store
	adapterStore       *generic.Store
	stopCh             <-chan struct{}
	instrumentStatusCh chan string
	closers            []runtime.LabeledCloser
}

func NewManager(instrumentStore, adapterStore *generic.Store, mqttClient mqtt.Client, gatewayMeta *gateway.GatewayMeta, stop <-chan struct{}, opts ...Option) *Manager {
	m := &Manager{
		gatewayMeta:        gatewayMeta,
		mqttClient:         mqttClient,
		mu:                 &sync.Mutex{},
		instrumentManager:  InstrumentManagers,
		instruments:        &sync.Map{},
		adapters:           &sync.Map{},
		heartBeatAdapters:  &sync.Map{},
		controllers:        make(map[string]*prologix.Controller),
		handles:            make(map[string]*instrument.Instrument),
		pollers:            make(map[string]runtime.Poller),
		pollerReturnCh:     make(map[string]chan *runtime.PollResult),
		instrumentStore:    instrumentStore,
		adapterStore:       adapterStore,
		stopCh:             stop,
		instrumentStatusCh: make(chan string),
	}
	m.closers = append(m.closers, runtime.LabeledCloser{
		Label: "mqttClient",
		Closer: func(context.Context) error {
			mqttClient.Disconnect(2000)
			return nil
		},
	})
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Init() {
	adapters, _ := m.adapterStore.LoadResource()
	for _, object := range adapters {
		obj, _ := runtime.AccessorAdapter(object)
		m.adapters.Store(obj.GetID(), obj)

		if err := m.connectAdapter(obj); err != nil {
			if errors.Is(err, prologix.ErrConnect) {
				m.heartBeatAdapters.Store(obj.GetID(), obj)
			} else {
				klog.V(2).InfoS("Failed to connect adapter", "adapterId", obj.GetID(), "err", err)
			}
		}
	}

	instruments, _ := m.instrumentStore.LoadResource()
	for _, object := range instruments {
		obj, _ := runtime.AccessorInstrument(object)
		obj.SetStatus(runtime.StatusToString[runtime.Detached])
		m.instruments.Store(obj.GetID(), obj)

		if err := m.attachInstrument(obj); err != nil {
			klog.V(2).InfoS("Failed to attach instrument", "instrumentId", obj.GetID(), "err", err)
			continue
		}
		if err := m.readyPoll(obj); err != nil {
			klog.V(2).InfoS("Failed to start poll process", "instrumentId", obj.GetID(), "err", err)
		}
	}

	go m.heartBeatDetection()
	go m.listeningInstrumentStatusCh()
}

func (m *Manager) CreateAdapter(object *v1.Adapter) (runtime.Adapter, error) {
	adapter := newGpibAdapter(object)

	created, err := m.adapterStore.Create(adapter, v1.ModelPrologix)
	if err != nil {
		klog.V(2).InfoS("Failed to store adapter", "err", err)
		return nil, err
	}
	ra := created.(runtime.Adapter)
	m.adapters.Store(ra.GetID(), ra)

	if err := m.connectAdapter(ra); err != nil {
		if errors.Is(err, prologix.ErrConnect) {
			m.heartBeatAdapters.Store(ra.GetID(), ra)
		} else {
			klog.V(2).InfoS("Failed to connect adapter", "adapterId", ra.GetID(), "err", err)
			return nil, err
		}
	}
	return ra, nil
}

func (m *Manager) DeleteAdapter(id string, version string) (runtime.Adapter, error) {
	adapter, err := m.GetAdapterById(id)
	if err != nil {
		return nil, err
	}
	if adapter.GetVersion() != version {
		return nil, apis.ErrMismatch
	}

	bound := false
	m.instruments.Range(func(key, value interface{}) bool {
		if value.(runtime.Instrument).GetAdapterID() == id {
			bound = true
			return false
		}
		return true
	})
	if bound {
		return nil, response.NewMultiError(response.ErrResourceExists("instrument bound to adapter " + id))
	}

	if _, err := m.adapterStore.Delete(adapter, v1.ModelPrologix); err != nil {
		klog.V(2).InfoS("Failed to delete adapter", "adapterId", id, "err", err)
		return nil, err
	}

	m.mu.Lock()
	if ctrl, ok := m.controllers[id]; ok {
		_ = ctrl.Close()
		delete(m.controllers, id)
	}
	m.mu.Unlock()
	m.heartBeatAdapters.Delete(id)
	m.adapters.Delete(id)

	klog.V(2).InfoS("Deleted adapter", "adapterId", id)
	return adapter, nil
}

func (m *Manager) ListAdapters() ([]runtime.Adapter, error) {
	ras := make([]runtime.Adapter, 0)
	m.adapters.Range(func(key, value interface{}) bool {
		ras = append(ras, value.(runtime.Adapter))
		return true
	})
	return ras, nil
}

func (m *Manager) GetAdapterById(id string) (runtime.Adapter, error) {
	a, isExist := m.adapters.Load(id)
	if !isExist {
		return nil, os.ErrNotExist
	}
	adapter, _ := a.(runtime.Adapter)
	return adapter, nil
}

func (m *Manager) CreateInstrument(object v1.InstrumentType) (runtime.Instrument, error) {
	mgr, ok := m.instrumentManager[object.GetModel()]
	if !ok {
		return nil, response.NewMultiError(response.ErrResourceNotFound(object.GetModel()))
	}
	stored, err := mgr.CreateInstrument(object)
	if err != nil {
		klog.V(2).InfoS("Failed to create instrument", "err", err)
		return nil, err
	}

	if _, err := m.GetAdapterById(stored.GetAdapterID()); err != nil {
		return nil, response.NewMultiError(response.ErrAdapterNotFound(stored.GetAdapterID()))
	}

	created, err := m.instrumentStore.Create(stored, stored.GetModel())
	if err != nil {
		klog.V(2).InfoS("Failed to store instrument", "err", err)
		return nil, err
	}
	ri := created.(runtime.Instrument)
	m.instruments.Store(ri.GetID(), ri)

	if err := m.attachInstrument(ri); err != nil {
		if errors.Is(err, prologix.ErrAddressInUse) {
			return nil, response.NewMultiError(response.ErrDuplicateAddress(ri.GetAddress(), ri.GetAdapterID()))
		}
		klog.V(2).InfoS("Failed to attach instrument", "instrumentId", ri.GetID(), "err", err)
		return ri, nil
	}
	if err := m.readyPoll(ri); err != nil {
		klog.V(2).InfoS("Failed to start poll process", "instrumentId", ri.GetID(), "err", err)
	}
	return ri, nil
}

func (m *Manager) DeleteInstrument(id string, version string) (runtime.Instrument, error) {
	ri, err := m.GetInstrumentById(id, false)
	if err != nil {
		return nil, err
	}
	if ri.GetVersion() != version {
		return nil, apis.ErrMismatch
	}

	stored, err := m.instrumentManager[ri.GetModel()].DeleteInstrument(ri)
	if err != nil {
		klog.V(2).InfoS("Failed to delete instrument", "err", err)
		return nil, err
	}

	if _, err := m.instrumentStore.Delete(stored, stored.GetModel()); err != nil {
		klog.V(2).InfoS("Failed to delete instrument", "instrumentId", id, "err", err)
	}

	klog.V(2).InfoS("Deleted instrument", "instrumentId", id)

	go func() {
		if err := m.cancelPoll(ri); err != nil {
			klog.V(2).InfoS("Failed to cancel poll process", "instrumentId", id)
		}
		m.detachInstrument(ri)
	}()

	m.instruments.Delete(id)
	return ri, nil
}

func (m *Manager) UpdateInstrumentById(id string, version string, newObj v1.InstrumentType) (runtime.Instrument, error) {
	ri, err := m.GetInstrumentById(id, true)
	if err != nil {
		return nil, err
	}
	if version != ri.GetVersion() {
		return nil, apis.ErrMismatch
	}

	copied := ri.(*runtime.GpibInstrument).DeepCopyObject()
	ci := copied.(runtime.Instrument)

	if err = m.instrumentManager[ri.GetModel()].UpdateValidation(newObj, ci); err != nil {
		return nil, err
	}

	stored, err := m.instrumentManager[ri.GetModel()].UpdateInstrument(id, newObj, ci)
	if err != nil {
		klog.V(2).InfoS("Failed to update instrument", "err", err)
		return nil, err
	}

	updated, err := m.instrumentStore.Update(stored, stored.GetModel())
	if err != nil {
		klog.V(2).InfoS("Failed to update instrument", "err", err)
		return nil, err
	}
	ru := updated.(runtime.Instrument)

	// rebind the live handle so table and address edits take effect
	if err := m.cancelPoll(ri); err != nil {
		klog.V(2).InfoS("Failed to cancel poll process", "instrumentId", id)
	}
	m.detachInstrument(ri)
	m.instruments.Store(ru.GetID(), ru)
	if err := m.attachInstrument(ru); err != nil {
		if errors.Is(err, prologix.ErrAddressInUse) {
			return nil, response.NewMultiError(response.ErrDuplicateAddress(ru.GetAddress(), ru.GetAdapterID()))
		}
		klog.V(2).InfoS("Failed to attach instrument", "instrumentId", id, "err", err)
		return ru, nil
	}
	if err := m.readyPoll(ru); err != nil {
		klog.V(2).InfoS("Failed to start poll process", "instrumentId", id, "err", err)
	}

	return ru, nil
}

func (m *Manager) ListInstruments(filter *runtime.InstrumentFilter, exploded bool) ([]runtime.Instrument, error) {
	ris := make([]runtime.Instrument, 0)
	predicates := runtime.ParseTypeFilter(filter)

	// descend
	byModTime := func(i1, i2 runtime.Instrument) bool { return i1.GetModTime().Before(i2.GetModTime()) }
	sorter := runtime.ByInstrument(byModTime)

	m.instruments.Range(func(key, value interface{}) bool {
		isMatch := true
		v := value.(runtime.Instrument)
		for _, p := range predicates {
			if !p(v) {
				isMatch = false
				break
			}
		}
		if isMatch {
			ris = sorter.Insert(ris, v)
		}
		return true
	})

	if !exploded {
		for i := range ris {
			ris[i] = m.foldInstrument(ris[i])
		}
	}

	return ris, nil
}

func (m *Manager) GetInstrumentById(id string, exploded bool) (runtime.Instrument, error) {
	i, isExist := m.instruments.Load(id)
	if !isExist {
		return nil, os.ErrNotExist
	}
	ri, _ := i.(runtime.Instrument)
	if !exploded {
		return m.foldInstrument(ri), nil
	}
	return ri, nil
}

func (m *Manager) SwitchInstrumentStatus(id string, status string) error {
	if _, err := m.GetInstrumentById(id, true); err != nil {
		klog.V(2).InfoS("Failed to find instrument", "instrumentId", id)
		return err
	}
	if _, ok := runtime.StringToStatusCh[status]; !ok {
		klog.V(2).InfoS("Unsupported instrument status", "status", status)
		return response.ErrStatusUnSupported(status)
	}
	isc := id + "-" + status
	m.instrumentStatusCh <- isc
	return nil
}

// DeliverCommand renders and writes one named command, consuming no
// response from the bus.
func (m *Manager) DeliverCommand(id string, instruction *v1.Instruction) error {
	handle, err := m.liveHandle(id)
	if err != nil {
		return err
	}
	if err := handle.Exec(instruction.Operation, argsOf(instruction)...); err != nil {
		return deliverError(err, id, instruction.Operation)
	}
	return nil
}

// DeliverQuery renders and writes one named query, then reads back and
// decodes the response.
func (m *Manager) DeliverQuery(id string, instruction *v1.Instruction) (interface{}, error) {
	handle, err := m.liveHandle(id)
	if err != nil {
		return nil, err
	}
	value, err := handle.Ask(instruction.Operation, argsOf(instruction)...)
	if err != nil {
		return nil, deliverError(err, id, instruction.Operation)
	}
	return value, nil
}

// ListOperations reports every command and query name an instrument
// accepts, built-ins included.
func (m *Manager) ListOperations(id string) (commands []string, queries []string, err error) {
	handle, err := m.liveHandle(id)
	if err != nil {
		return nil, nil, err
	}
	return handle.Commands().ListAll(), handle.Queries().ListAll(), nil
}

func (m *Manager) liveHandle(id string) (*instrument.Instrument, error) {
	if _, err := m.GetInstrumentById(id, true); err != nil {
		klog.V(2).InfoS("Failed to find instrument", "instrumentId", id)
		return nil, response.NewMultiError(response.ErrInstrumentNotFound(id))
	}
	m.mu.Lock()
	handle, ok := m.handles[id]
	m.mu.Unlock()
	if !ok || !handle.Attached() {
		return nil, response.NewMultiError(response.ErrInstrumentDetached(id))
	}
	return handle, nil
}

func (m *Manager) connectAdapter(a runtime.Adapter) error {
	ga, ok := a.(*runtime.GpibAdapter)
	if !ok {
		return response.ErrAdapterNotFound(a.GetID())
	}

	opts := []transport.SerialOption{
		transport.WithParity(ga.Parity),
		transport.WithStopBits(ga.StopBits),
	}
	if ga.BaudRate > 0 {
		opts = append(opts, transport.WithBaudRate(ga.BaudRate))
	}

	ctrl, err := prologix.Connect(ga.Port, opts...)
	if err != nil {
		a.SetStatus(runtime.StatusToString[runtime.Unreachable])
		return err
	}

	if ctrl.ReadAfterWrite() != ga.ReadAfterWrite {
		if err := ctrl.SetReadAfterWrite(ga.ReadAfterWrite); err != nil {
			klog.V(2).InfoS("Failed to set read-after-write", "adapterId", ga.GetID(), "err", err)
		}
	}
	ga.Firmware = ctrl.Version()
	a.SetStatus(runtime.StatusToString[runtime.Attached])

	m.mu.Lock()
	m.controllers[a.GetID()] = ctrl
	m.mu.Unlock()

	klog.V(2).InfoS("Connected adapter", "adapterId", ga.GetID(), "port", ga.Port, "firmware", ga.Firmware)
	return nil
}

func (m *Manager) attachInstrument(ri runtime.Instrument) error {
	gi, ok := ri.(*runtime.GpibInstrument)
	if !ok {
		return scpiTypeError(ri)
	}

	m.mu.Lock()
	ctrl, ok := m.controllers[gi.AdapterID]
	m.mu.Unlock()
	if !ok {
		return prologix.ErrNotConnected
	}

	handle, err := instrument.New(gi.Address, instrumentOptions(gi)...)
	if err != nil {
		return err
	}
	if err := ctrl.AddInstrument(handle); err != nil {
		return err
	}

	m.mu.Lock()
	m.handles[gi.GetID()] = handle
	m.mu.Unlock()
	ri.SetStatus(runtime.StatusToString[runtime.Attached])
	return nil
}

func (m *Manager) detachInstrument(ri runtime.Instrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.handles[ri.GetID()]; !ok {
		return
	}
	if ctrl, ok := m.controllers[ri.GetAdapterID()]; ok {
		if err := ctrl.RemoveInstrument(ri.GetAddress()); err != nil {
			klog.V(3).InfoS("Failed to remove instrument from bus", "instrumentId", ri.GetID(), "err", err)
		}
	}
	delete(m.handles, ri.GetID())
	ri.SetStatus(runtime.StatusToString[runtime.Detached])
}

func (m *Manager) cancelPoll(ri runtime.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ri.SetStatus(runtime.StatusToString[runtime.Stopped])
	if p, ok := m.pollers[ri.GetID()]; ok {
		p.Destroy(context.Background())
		delete(m.pollers, ri.GetID())
		delete(m.pollerReturnCh, ri.GetID())
	}
	return nil
}

func (m *Manager) readyPoll(ri runtime.Instrument) error {
	gi, ok := ri.(*runtime.GpibInstrument)
	if !ok {
		return scpiTypeError(ri)
	}

	m.mu.Lock()
	handle, ok := m.handles[gi.GetID()]
	m.mu.Unlock()
	if !ok {
		return response.ErrInstrumentDetached(gi.GetID())
	}

	poller, results, err := monitor.NewPoller(gi, handle)
	if err != nil {
		if errors.Is(err, monitor.ErrEmptyPollQueries) {
			// nothing to collect, stay attached
			return nil
		}
		return err
	}
	ri.SetStatus(runtime.StatusToString[runtime.Polling])
	klog.V(2).InfoS("Started to poll instrument", "instrumentId", gi.GetID())
	m.mu.Lock()
	m.pollers[gi.GetID()] = poller
	m.pollerReturnCh[gi.GetID()] = results
	m.mu.Unlock()

	topic := gi.Topic
	if len(topic) == 0 {
		topic = fmt.Sprintf("data/%s/v1/%s", m.gatewayMeta.ID, gi.GetID())
		gi.Topic = topic
	}

	poller.Poll(context.Background())
	go func(instrumentId string, results chan *runtime.PollResult) {
		for {
			select {
			case _, ok := <-m.stopCh:
				if !ok {
					return
				}
			case pr, ok := <-results:
				if !ok {
					klog.V(2).InfoS("Stopped to poll instrument", "instrumentId", instrumentId)
					return
				}
				v, loaded := m.instruments.Load(instrumentId)
				if !loaded {
					klog.V(2).InfoS("Failed to load instrument", "instrumentId", instrumentId)
					continue
				}
				m.forwardResult(v.(runtime.Instrument), topic, pr)
			}
		}
	}(gi.GetID(), results)
	return nil
}

// forwardResult publishes the readings of one poll round. Queries that
// failed inside the round are recorded but never discard the readings that
// succeeded; pollingError is reserved for the publish pipeline.
func (m *Manager) forwardResult(ri runtime.Instrument, topic string, pr *runtime.PollResult) {
	for _, err := range pr.Err {
		klog.V(3).InfoS("Failed to collect query", "instrumentId", ri.GetID(), "err", err)
	}
	if len(pr.Readings) == 0 {
		return
	}

	pds := make([]runtime.PointData, 0, len(pr.Readings))
	for _, reading := range pr.Readings {
		pds = append(pds, runtime.PointData{
			DataPointId: reading.Operation,
			Value:       reading.Value,
		})
	}
	publishData := runtime.PublishData{Payload: runtime.Payload{Data: []runtime.TimeSeriesData{{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Values:    pds,
	}}}}

	marshal, _ := json.Marshal(publishData)
	token := m.mqttClient.Publish(topic, 1, false, marshal)
	if token.WaitTimeout(mqttTimeout) && token.Error() == nil {
		if ri.GetStatus() != runtime.StatusToString[runtime.Polling] {
			ri.SetStatus(runtime.StatusToString[runtime.Polling])
		}
		klog.V(5).InfoS("Succeed to publish MQTT", "topic", topic, "data", publishData)
	} else {
		ri.SetStatus(runtime.StatusToString[runtime.PollingError])
		klog.V(1).InfoS("Failed to publish MQTT", "topic", topic, "err", token.Error())
	}
}

func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	pollers := make([]runtime.Poller, 0, len(m.pollers))
	for _, p := range m.pollers {
		pollers = append(pollers, p)
	}
	controllers := make([]*prologix.Controller, 0, len(m.controllers))
	for _, ctrl := range m.controllers {
		controllers = append(controllers, ctrl)
	}
	m.mu.Unlock()

	for _, p := range pollers {
		p.Destroy(ctx)
	}
	for _, ctrl := range controllers {
		_ = ctrl.Close()
	}

	var errs []string
	for i := len(m.closers); i > 0; i-- {
		lc := m.closers[i-1]
		if err := lc.Closer(ctx); err != nil {
			klog.V(2).InfoS("Failed to stopped Dependencies service", "service", lc.Label)
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("Failed to shutdown server: [%s]\n", strings.Join(errs, ","))
	}
	return nil
}

// Counts reports the managed adapter and instrument totals, reachable or
// not.
func (m *Manager) Counts() (adapters, instruments int) {
	m.adapters.Range(func(_, _ interface{}) bool {
		adapters++
		return true
	})
	m.instruments.Range(func(_, _ interface{}) bool {
		instruments++
		return true
	})
	return adapters, instruments
}

func (m *Manager) foldInstrument(ri runtime.Instrument) runtime.Instrument {
	return &runtime.InstrumentMeta{
		ObjectMeta: runtime.ObjectMeta{
			Name:    ri.GetName(),
			ID:      ri.GetID(),
			Version: ri.GetVersion(),
			ModTime: ri.GetModTime(),
		},
		AdapterID: ri.GetAdapterID(),
		Address:   ri.GetAddress(),
		Model:     ri.GetModel(),
		Status:    ri.GetStatus(),
	}
}

func (m *Manager) heartBeatDetection() {
	tick := time.Tick(heartBeatTimeInterval)
	for {
		select {
		case _, ok := <-m.stopCh:
			if !ok {
				return
			}
		case <-tick:
			resumeAdapters := make([]string, 0)
			m.heartBeatAdapters.Range(func(key, value any) bool {
				a := value.(runtime.Adapter)
				if err := m.connectAdapter(a); err == nil {
					resumeAdapters = append(resumeAdapters, key.(string))
					m.resumeInstruments(a.GetID())
				}
				return true
			})
			for _, adapterId := range resumeAdapters {
				m.heartBeatAdapters.Delete(adapterId)
			}
		}
	}
}

// resumeInstruments re-attaches every instrument of an adapter that came
// back after a heartbeat reconnect.
func (m *Manager) resumeInstruments(adapterId string) {
	m.instruments.Range(func(key, value interface{}) bool {
		ri := value.(runtime.Instrument)
		if ri.GetAdapterID() != adapterId {
			return true
		}
		if ri.GetStatus() != runtime.StatusToString[runtime.Detached] {
			return true
		}
		if err := m.attachInstrument(ri); err != nil {
			klog.V(2).InfoS("Failed to attach instrument", "instrumentId", ri.GetID(), "err", err)
			return true
		}
		if err := m.readyPoll(ri); err != nil {
			klog.V(2).InfoS("Failed to start poll process", "instrumentId", ri.GetID(), "err", err)
		}
		return true
	})
}

func (m *Manager) listeningInstrumentStatusCh() {
	for {
		select {
		case _, ok := <-m.stopCh:
			if !ok {
				return
			}
		case statusCh, ok := <-m.instrumentStatusCh:
			if !ok {
				return
			}
			split := strings.Split(statusCh, "-")
			instrumentId := split[0]
			status := split[1]
			i, exist := m.instruments.Load(instrumentId)
			if !exist {
				klog.V(2).InfoS("Failed to find instrument", "instrumentId", instrumentId)
				continue
			}
			m.switchInstrumentStatus(i.(runtime.Instrument), status)
		}
	}
}

func (m *Manager) switchInstrumentStatus(ri runtime.Instrument, status string) {
	current := runtime.StringToStatus[ri.GetStatus()]
	switch runtime.StringToStatusCh[status] {
	case runtime.Start:
		if current == runtime.Polling {
			return
		}
		m.restartPoll(ri)
	case runtime.Restart:
		m.restartPoll(ri)
	case runtime.Stop:
		if current == runtime.Polling || current == runtime.PollingError {
			_ = m.cancelPoll(ri)
		}
	}
}

func (m *Manager) restartPoll(ri runtime.Instrument) {
	_ = m.cancelPoll(ri)
	if _, ok := m.handles[ri.GetID()]; !ok {
		if err := m.attachInstrument(ri); err != nil {
			klog.V(2).InfoS("Failed to attach instrument", "instrumentId", ri.GetID(), "err", err)
			return
		}
	} else {
		ri.SetStatus(runtime.StatusToString[runtime.Attached])
	}
	if err := m.readyPoll(ri); err != nil {
		klog.V(2).InfoS("Failed to start poll process", "instrumentId", ri.GetID(), "err", err)
	}
}

func newGpibAdapter(in *v1.Adapter) *runtime.GpibAdapter {
	return &runtime.GpibAdapter{
		AdapterMeta: runtime.AdapterMeta{
			ObjectMeta: runtime.ObjectMeta{
				Name:    in.Name,
				ID:      uuidutil.UUID(),
				Version: strconv.FormatUint(randutil.Uint64n(), 10),
				ModTime: time.Now(),
			},
			Port:   in.Port,
			Status: runtime.StatusToString[runtime.Unreachable],
		},
		BaudRate:       in.BaudRate,
		Parity:         runtime.StringToParity[in.Parity],
		StopBits:       runtime.StringToStopBits[in.StopBits],
		ReadAfterWrite: in.ReadAfterWrite,
	}
}

func instrumentOptions(gi *runtime.GpibInstrument) []instrument.Option {
	opts := []instrument.Option{instrument.WithName(gi.Name)}

	commands := make([]instrument.Descriptor, 0, len(gi.Commands))
	for _, c := range gi.Commands {
		commands = append(commands, instrument.NewDescriptor(c.Name, c.Template))
	}
	if len(commands) > 0 {
		opts = append(opts, instrument.WithCommands(commands...))
	}

	queries := make([]instrument.Descriptor, 0, len(gi.Queries))
	for _, q := range gi.Queries {
		queries = append(queries, instrument.NewQueryDescriptor(
			q.Name,
			q.Template,
			q.ReadBytes,
			time.Duration(q.TimeoutSeconds)*time.Second,
			instrument.DecoderOf(q.Decode),
		))
	}
	if len(queries) > 0 {
		opts = append(opts, instrument.WithQueries(queries...))
	}
	return opts
}

func argsOf(instruction *v1.Instruction) []interface{} {
	args := make([]interface{}, 0, len(instruction.Args))
	for _, a := range instruction.Args {
		args = append(args, a)
	}
	return args
}

func deliverError(err error, id string, operation string) error {
	var arityErr *instrument.ArityError
	switch {
	case errors.Is(err, instrument.ErrUnknownOperation):
		return response.NewMultiError(response.ErrOperationNotFound(operation, id))
	case errors.As(err, &arityErr):
		return response.NewMultiError(response.ErrOperationBadArgs(operation, arityErr.Want))
	case errors.Is(err, instrument.ErrNotAttached):
		return response.NewMultiError(response.ErrInstrumentDetached(id))
	default:
		return response.NewMultiError(response.ErrAdapterUnreachable(err, id))
	}
}

func scpiTypeError(ri runtime.Instrument) error {
	klog.V(2).InfoS("Unsupported instrument type", "instrumentId", ri.GetID(), "model", ri.GetModel())
	return response.ErrResourceNotFound(ri.GetModel())
}
