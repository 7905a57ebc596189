package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas de conversa
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloquito_messages_total",
		Help: "Total de mensagens adicionadas às conversas",
	}, []string{"role", "source"})

	MatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloquito_matches_total",
		Help: "Total de respostas selecionadas por entrada da base",
	}, []string{"entry", "confident"})

	MatchScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bloquito_match_score",
		Help:    "Pontuação da entrada vencedora",
		Buckets: []float64{0, 0.5, 1, 2, 3, 5, 8, 13},
	})

	ResponseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bloquito_response_latency_seconds",
		Help:    "Tempo entre a mensagem do usuário e a resposta do bot",
		Buckets: prometheus.DefBuckets,
	})

	// Métricas de voz
	ActiveVoiceSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bloquito_active_voice_sessions",
		Help: "Número de sessões em modo de voz",
	})

	VoiceTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloquito_voice_transitions_total",
		Help: "Transições de estado do modo de voz",
	}, []string{"from", "to"})

	RecognitionErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloquito_recognition_errors_total",
		Help: "Erros reportados pelo reconhecimento de voz",
	}, []string{"code"})

	SynthesisErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloquito_synthesis_errors_total",
		Help: "Erros reportados pela síntese de fala",
	}, []string{"code"})

	DiscardedTranscriptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bloquito_discarded_transcripts_total",
		Help: "Transcrições descartadas por tamanho ou confiança",
	})

	// Métricas de infraestrutura
	KnowledgeLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloquito_knowledge_loads_total",
		Help: "Carregamentos da base de conhecimento e das substituições de voz",
	}, []string{"kind", "status"})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bloquito_connected_clients",
		Help: "Clientes conectados via WebSocket",
	})

	FramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloquito_frames_total",
		Help: "Frames recebidos dos clientes por tipo",
	}, []string{"type"})
)
