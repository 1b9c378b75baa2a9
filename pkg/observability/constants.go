package observability

const (
	AttrAgentID         = "agent.id"
	AttrAgentState      = "agent.state"
	AttrRound           = "simulation.round"
	AttrLLMModel        = "llm.model"
	AttrLLMTokensInput  = "llm.tokens.input"
	AttrLLMTokensOutput = "llm.tokens.output"

	SpanRound      = "simulation.round"
	SpanAgentTurn  = "simulation.agent_turn"
	SpanLLMRequest = "llm.request"

	DefaultServiceName  = "prism"
	DefaultSamplingRate = 1.0
	DefaultOTLPEndpoint = "localhost:4317"
)
