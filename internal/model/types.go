package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genome is a feedforward network description. Neurons are evaluated in
// slice order, so every synapse must point from an earlier neuron.
type Genome struct {
	VersionedRecord
	ID        string    `json:"id"`
	Neurons   []Neuron  `json:"neurons"`
	Synapses  []Synapse `json:"synapses"`
	InputIDs  []string  `json:"input_ids"`
	OutputIDs []string  `json:"output_ids"`
}

type Neuron struct {
	ID         string  `json:"id"`
	Activation string  `json:"activation"`
	Bias       float64 `json:"bias"`
}

type Synapse struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Weight  float64 `json:"weight"`
	Enabled bool    `json:"enabled"`
}

// RunRecord describes one evaluation run driven across generations.
type RunRecord struct {
	VersionedRecord
	ID               string  `json:"id"`
	CreatedAtUTC     string  `json:"created_at_utc"`
	Scape            string  `json:"scape"`
	Seed             int64   `json:"seed"`
	Population       int     `json:"population"`
	Generations      int     `json:"generations"`
	Workers          int     `json:"workers"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	TickBudget       int     `json:"tick_budget"`
	GoalThreshold    int     `json:"goal_threshold"`
	TerminalBonus    float64 `json:"terminal_bonus"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	BestGenomeID     string  `json:"best_genome_id,omitempty"`
}

// CandidateRecord is the outcome of one candidate's episode.
type CandidateRecord struct {
	CandidateID string  `json:"candidate_id"`
	Fitness     float64 `json:"fitness"`
	GoalsFound  int     `json:"goals_found"`
	Ticks       int     `json:"ticks"`
	Termination string  `json:"termination"`
	Error       string  `json:"error,omitempty"`
}

// GenerationRecord summarizes one fully evaluated generation.
type GenerationRecord struct {
	Generation  int               `json:"generation"`
	BestFitness float64           `json:"best_fitness"`
	MeanFitness float64           `json:"mean_fitness"`
	StdFitness  float64           `json:"std_fitness"`
	MinFitness  float64           `json:"min_fitness"`
	Successes   int               `json:"successes"`
	Failures    int               `json:"failures"`
	BestID      string            `json:"best_id"`
	Candidates  []CandidateRecord `json:"candidates"`
}
