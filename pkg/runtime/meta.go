package runtime

import (
	"time"
)

func (meta *ObjectMeta) GetName() string              { return meta.Name }
func (meta *ObjectMeta) SetName(name string)          { meta.Name = name }
func (meta *ObjectMeta) GetID() string                { return meta.ID }
func (meta *ObjectMeta) SetID(id string)              { meta.ID = id }
func (meta *ObjectMeta) GetVersion() string           { return meta.Version }
func (meta *ObjectMeta) SetVersion(version string)    { meta.Version = version }
func (meta *ObjectMeta) GetModTime() time.Time        { return meta.ModTime }
func (meta *ObjectMeta) SetModTime(modTime time.Time) { meta.ModTime = modTime }

func (m *InstrumentMeta) GetAdapterID() string   { return m.AdapterID }
func (m *InstrumentMeta) SetAdapterID(id string) { m.AdapterID = id }
func (m *InstrumentMeta) GetAddress() uint8      { return m.Address }
func (m *InstrumentMeta) SetAddress(addr uint8)  { m.Address = addr }
func (m *InstrumentMeta) GetModel() string       { return m.Model }
func (m *InstrumentMeta) SetModel(model string)  { m.Model = model }
func (m *InstrumentMeta) GetStatus() string      { return m.Status }
func (m *InstrumentMeta) SetStatus(s string)     { m.Status = s }

func (m *AdapterMeta) GetPort() string    { return m.Port }
func (m *AdapterMeta) SetPort(p string)   { m.Port = p }
func (m *AdapterMeta) GetStatus() string  { return m.Status }
func (m *AdapterMeta) SetStatus(s string) { m.Status = s }

func Accessor(obj interface{}) (Object, error) {
	switch t := obj.(type) {
	case Object:
		return t, nil
	case ObjectMetaAccessor:
		if m := t.GetObjectMeta(); m != nil {
			return m, nil
		}
		return nil, ErrNotObject
	default:
		return nil, ErrNotObject
	}
}

func AccessorInstrument(obj interface{}) (Instrument, error) {
	switch t := obj.(type) {
	case Instrument:
		return t, nil
	default:
		return nil, ErrNotObject
	}
}

func AccessorAdapter(obj interface{}) (Adapter, error) {
	switch t := obj.(type) {
	case Adapter:
		return t, nil
	default:
		return nil, ErrNotObject
	}
}
