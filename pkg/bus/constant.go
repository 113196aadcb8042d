package bus

import (
	"time"

	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/sets"

	"gpibgateway/pkg/scpi"
	v1 "gpibgateway/pkg/v1"
)

var InstrumentManagers = map[string]InstrumentManager{
	v1.ModelScpi: &scpi.InstrumentManager{},
}

var patchTypes = sets.NewString(string(types.JSONPatchType), string(types.MergePatchType))

const (
	maxJSONPatchOperations = 1000
	mqttTimeout            = 1 * time.Second
	heartBeatTimeInterval  = 15 * time.Second
)
