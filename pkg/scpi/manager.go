package scpi

import (
	"strconv"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"

	"gpibgateway/pkg/apis"
	"gpibgateway/pkg/runtime"
	"gpibgateway/pkg/utils/differenceutil"
	"gpibgateway/pkg/utils/randutil"
	"gpibgateway/pkg/utils/uuidutil"
	v1 "gpibgateway/pkg/v1"
)

type InstrumentManager struct {
}

func (m *InstrumentManager) CreateInstrument(instrumentType v1.InstrumentType) (runtime.Instrument, error) {
	scpiInstrument, ok := instrumentType.(*v1.ScpiInstrument)
	if !ok {
		klog.V(2).InfoS("Unsupported instrument,model not scpi")
		return nil, ErrInstrumentType
	}

	i := &runtime.GpibInstrument{
		InstrumentMeta: runtime.InstrumentMeta{
			ObjectMeta: runtime.ObjectMeta{
				Name:    scpiInstrument.Name,
				ID:      uuidutil.UUID(),
				Version: strconv.FormatUint(randutil.Uint64n(), 10),
				ModTime: time.Now(),
			},
			AdapterID: scpiInstrument.AdapterID,
			Address:   scpiInstrument.Address,
			Model:     scpiInstrument.Model,
			Status:    runtime.StatusToString[runtime.Detached],
		},
		Topic:       scpiInstrument.Topic,
		PollCycle:   scpiInstrument.PollCycle,
		PollQueries: scpiInstrument.PollQueries,
	}
	for _, c := range scpiInstrument.Commands {
		i.Commands = append(i.Commands, &runtime.OperationSpec{
			Name:     strings.TrimSpace(c.Name),
			Template: c.Template,
		})
	}
	for _, q := range scpiInstrument.Queries {
		i.Queries = append(i.Queries, &runtime.QueryOperationSpec{
			Name:           strings.TrimSpace(q.Name),
			Template:       q.Template,
			ReadBytes:      q.ReadBytes,
			TimeoutSeconds: q.TimeoutSeconds,
			Decode:         runtime.StringToDecodeType[q.Decode],
		})
	}
	return i, nil
}

func (m *InstrumentManager) DeleteInstrument(instrument runtime.Instrument) (runtime.Instrument, error) {
	return &runtime.GpibInstrument{InstrumentMeta: runtime.InstrumentMeta{
		ObjectMeta: runtime.ObjectMeta{ID: instrument.GetID(), Version: instrument.GetVersion()},
		AdapterID:  instrument.GetAdapterID(),
		Address:    instrument.GetAddress(),
		Model:      instrument.GetModel(),
	}}, nil
}

func (m *InstrumentManager) UpdateValidation(instrumentType v1.InstrumentType, instrument runtime.Instrument) error {
	if instrumentType.GetModel() != instrument.GetModel() {
		klog.V(2).InfoS("Instrument model is immutable", "instrumentId", instrument.GetID())
		return apis.ErrImmutable
	}
	return nil
}

func (m *InstrumentManager) UpdateInstrument(id string, instrumentType v1.InstrumentType, instrument runtime.Instrument) (runtime.Instrument, error) {
	scpiInstrument, ok := instrumentType.(*v1.ScpiInstrument)
	if !ok {
		klog.V(2).InfoS("Unsupported instrument,model not scpi")
		return nil, ErrInstrumentType
	}

	copied, _ := instrument.(*runtime.GpibInstrument)
	copied.Name = scpiInstrument.Name
	copied.AdapterID = scpiInstrument.AdapterID
	copied.Address = scpiInstrument.Address
	copied.Topic = scpiInstrument.Topic
	copied.PollCycle = scpiInstrument.PollCycle
	copied.PollQueries = scpiInstrument.PollQueries

	copied.Commands = mergeCommands(copied.Commands, scpiInstrument.Commands)
	copied.Queries = mergeQueries(copied.Queries, scpiInstrument.Queries)

	return copied, nil
}

func mergeCommands(old []*runtime.OperationSpec, in []*v1.Operation) []*runtime.OperationSpec {
	delNames, _, _ := differenceutil.DifferenceAndIntersectionObjects(old, in,
		func(value interface{}) string { return value.(*runtime.OperationSpec).Name },
		func(value interface{}) string { return value.(*v1.Operation).Name })

	byName := make(map[string]*runtime.OperationSpec, len(old))
	i := 0
	delNameSet := sets.NewString(delNames...)
	for _, c := range old {
		if !delNameSet.Has(c.Name) {
			old[i] = c
			byName[c.Name] = c
			i++
		}
	}
	old = old[:i]

	// upsert
	for _, nc := range in {
		name := strings.TrimSpace(nc.Name)
		if c, ok := byName[name]; ok {
			c.Template = nc.Template
		} else {
			c := &runtime.OperationSpec{Name: name, Template: nc.Template}
			old = append(old, c)
			byName[name] = c
		}
	}
	return old
}

func mergeQueries(old []*runtime.QueryOperationSpec, in []*v1.QueryOperation) []*runtime.QueryOperationSpec {
	delNames, _, _ := differenceutil.DifferenceAndIntersectionObjects(old, in,
		func(value interface{}) string { return value.(*runtime.QueryOperationSpec).Name },
		func(value interface{}) string { return value.(*v1.QueryOperation).Name })

	byName := make(map[string]*runtime.QueryOperationSpec, len(old))
	i := 0
	delNameSet := sets.NewString(delNames...)
	for _, q := range old {
		if !delNameSet.Has(q.Name) {
			old[i] = q
			byName[q.Name] = q
			i++
		}
	}
	old = old[:i]

	// upsert
	for _, nq := range in {
		name := strings.TrimSpace(nq.Name)
		if q, ok := byName[name]; ok {
			q.Template = nq.Template
			q.ReadBytes = nq.ReadBytes
			q.TimeoutSeconds = nq.TimeoutSeconds
			q.Decode = runtime.StringToDecodeType[nq.Decode]
		} else {
			q := &runtime.QueryOperationSpec{
				Name:           name,
				Template:       nq.Template,
				ReadBytes:      nq.ReadBytes,
				TimeoutSeconds: nq.TimeoutSeconds,
				Decode:         runtime.StringToDecodeType[nq.Decode],
			}
			old = append(old, q)
			byName[name] = q
		}
	}
	return old
}
