package models

// Labels are the literal strings handed to chart and report collaborators.
type Labels struct {
	ReportTitle     string
	ChartTitle      string
	NoData          string
	Respondent      string
	Provider        string
	FinancialEntity string
	SubmittedAt     string
	Category        string
	Score           string
	Answered        string
	Question        string
	Answer          string
	Observation     string
	Unanswered      string
	ScoresHeading   string
	AnswersHeading  string
	DeliverySubject string
	Progress        string
}

var labels = map[Language]Labels{
	LanguageES: {
		ReportTitle:     "Informe de evaluación DORA",
		ChartTitle:      "Puntuación por categoría",
		NoData:          "Sin datos",
		Respondent:      "Responsable",
		Provider:        "Proveedor",
		FinancialEntity: "Entidad financiera",
		SubmittedAt:     "Fecha de envío",
		Category:        "Categoría",
		Score:           "Puntuación",
		Answered:        "Respondidas",
		Question:        "Pregunta",
		Answer:          "Respuesta",
		Observation:     "Observaciones",
		Unanswered:      "Sin responder",
		ScoresHeading:   "Resultados por categoría",
		AnswersHeading:  "Respuestas",
		DeliverySubject: "Nueva evaluación DORA",
		Progress:        "Progreso",
	},
	LanguagePT: {
		ReportTitle:     "Relatório de avaliação DORA",
		ChartTitle:      "Pontuação por categoria",
		NoData:          "Sem dados",
		Respondent:      "Responsável",
		Provider:        "Fornecedor",
		FinancialEntity: "Entidade financeira",
		SubmittedAt:     "Data de envio",
		Category:        "Categoria",
		Score:           "Pontuação",
		Answered:        "Respondidas",
		Question:        "Pergunta",
		Answer:          "Resposta",
		Observation:     "Observações",
		Unanswered:      "Sem resposta",
		ScoresHeading:   "Resultados por categoria",
		AnswersHeading:  "Respostas",
		DeliverySubject: "Nova avaliação DORA",
		Progress:        "Progresso",
	},
}

// LabelsFor returns the label set for lang, defaulting to Spanish.
func LabelsFor(lang Language) Labels {
	if l, ok := labels[lang]; ok {
		return l
	}
	return labels[LanguageES]
}
