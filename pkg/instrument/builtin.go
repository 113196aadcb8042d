package instrument

// IEEE 488.2 common operations, present on every instrument. Model-specific
// tables extend these, they never replace them.

func builtinCommands() []Descriptor {
	return []Descriptor{
		NewDescriptor("reset", "*RST"),
		NewDescriptor("clear", "*CLS"),
		NewDescriptor("wait", "*WAI"),
		NewDescriptor("operationComplete", "*OPC"),
		NewDescriptor("eventStatusEnable", "*ESE %d"),
		NewDescriptor("serviceRequestEnable", "*SRE %d"),
		NewDescriptor("saveSettings", "*SAV %d"),
		NewDescriptor("recallSettings", "*RCL %d"),
	}
}

func builtinQueries() []Descriptor {
	return []Descriptor{
		// ident deliberately carries no decoder, callers get the raw
		// identification bytes
		NewQueryDescriptor("ident", "*IDN?", 0, 0, nil),
		NewQueryDescriptor("selfTest", "*TST?", 0, 0, DecodeInt),
		NewQueryDescriptor("statusByte", "*STB?", 0, 0, DecodeInt),
		NewQueryDescriptor("eventStatus", "*ESR?", 0, 0, DecodeInt),
		NewQueryDescriptor("eventStatusEnable", "*ESE?", 0, 0, DecodeInt),
		NewQueryDescriptor("serviceRequestEnable", "*SRE?", 0, 0, DecodeInt),
		NewQueryDescriptor("operationComplete", "*OPC?", 0, 0, DecodeBool),
		NewQueryDescriptor("options", "*OPT?", 0, 0, DecodeString),
	}
}
