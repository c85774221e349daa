package metrics

import "time"

type SearchMetric struct {
	Duration     time.Duration
	Simulations  int
	Cutoff       int
	Exploration  float64
	Evaluator    string
	FullPlayouts int
	DeadEnds     int
	EngineSteps  int
	RootChildren int
	RootVisits   int
}

type MoveMetric struct {
	Battle   string
	Turn     int
	Role     string
	Order    string
	Planned  bool   // false when the fallback policy chose the order
	Fallback string // reason the planner was not used
	SearchMetric
}

type Collector interface {
	Start(cutoff int, exploration float64, evaluator string)
	AddSimulation()
	AddFullPlayout()
	AddDeadEnd()
	AddEngineStep()
	SetRoot(children, visits int)
	Complete() SearchMetric
}

// collector counts for a single search on a single goroutine.
type collector struct {
	cutoff       int
	exploration  float64
	evaluator    string
	startTime    time.Time
	simulations  int
	fullPlayouts int
	deadEnds     int
	engineSteps  int
	rootChildren int
	rootVisits   int
}

// NewCollector returns a collector for one search. It is not safe for
// concurrent use.
func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(cutoff int, exploration float64, evaluator string) {
	m.startTime = time.Now()
	m.cutoff = cutoff
	m.exploration = exploration
	m.evaluator = evaluator
}

func (m *collector) AddSimulation() {
	m.simulations++
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts++
}

func (m *collector) AddDeadEnd() {
	m.deadEnds++
}

func (m *collector) AddEngineStep() {
	m.engineSteps++
}

func (m *collector) SetRoot(children, visits int) {
	m.rootChildren = children
	m.rootVisits = visits
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Duration:     time.Since(m.startTime),
		Simulations:  m.simulations,
		Cutoff:       m.cutoff,
		Exploration:  m.exploration,
		Evaluator:    m.evaluator,
		FullPlayouts: m.fullPlayouts,
		DeadEnds:     m.deadEnds,
		EngineSteps:  m.engineSteps,
		RootChildren: m.rootChildren,
		RootVisits:   m.rootVisits,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(cutoff int, exploration float64, evaluator string) {}
func (m *dummyCollector) AddSimulation()                                          {}
func (m *dummyCollector) AddFullPlayout()                                         {}
func (m *dummyCollector) AddDeadEnd()                                             {}
func (m *dummyCollector) AddEngineStep()                                          {}
func (m *dummyCollector) SetRoot(children, visits int)                            {}
func (m *dummyCollector) Complete() SearchMetric                                  { return SearchMetric{} }
