package pipeline

// Mode selects which entry pipeline a session runs.
type Mode string

const (
	ModeGenerate Mode = "generate"
	ModeUpload   Mode = "upload"
)

// Phase is the session's position in its pipeline. Transitions are strictly
// sequential: each phase's input is the previous phase's output.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhasePromptReady      Phase = "prompt_ready"
	PhaseDescriptionReady Phase = "description_ready"
	PhaseImageReady       Phase = "image_ready"
	PhaseExplanationReady Phase = "explanation_ready"
	PhaseQuizReady        Phase = "quiz_ready"
	PhaseChatReady        Phase = "chat_ready"
	PhaseFailed           Phase = "failed"
)

// Step labels surfaced before each phase's call is issued. Observational
// only; nothing reads them back for control flow.
const (
	stepInitializing = "Initializing..."
	stepPrompt       = "Generating clinical prompt..."
	stepImage        = "Generating X-ray image..."
	stepAnalyze      = "Analyzing image to generate description..."
	stepExplanation  = "Generating medical explanation..."
	stepQuiz         = "Generating interactive quiz..."
	stepChat         = "Initializing chat assistant..."
)

// PointerPhase is the explicit per-mark analysis state. Transitions happen
// only under the session lock, never via implicit re-checks, so the analysis
// cannot double-fire.
type PointerPhase string

const (
	PointerUnanalyzed PointerPhase = "unanalyzed"
	PointerAnalyzing  PointerPhase = "analyzing"
	PointerAnalyzed   PointerPhase = "analyzed"
	PointerFailed     PointerPhase = "failed"
)
