package multisig

const (
	metricsStructName = "multisig.facade"
)
