package v1

const (
	// ModelScpi is the generic IEEE 488.2 instrument model.
	ModelScpi = "scpi"

	// ModelPrologix is the GPIB-USB controller adapter model.
	ModelPrologix = "prologix"
)
