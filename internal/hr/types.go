// Package hr defines the records kept by softrh. JSON tags are the persisted
// layout and must stay compatible with existing backups.
package hr

import "time"

// Record carries the fields every top-level record shares.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"dataCriacao,omitzero"`
	UpdatedAt time.Time `json:"dataAtualizacao,omitzero"`
}

// Base gives generic code access to the shared fields.
func (r *Record) Base() *Record { return r }

type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "ativo"
	EmployeeOnVacation EmployeeStatus = "ferias"
	EmployeeAway       EmployeeStatus = "afastado"
)

type Employee struct {
	Record
	Name          string         `json:"nome"`
	Email         string         `json:"email"`
	Phone         string         `json:"telefone,omitempty"`
	Role          string         `json:"cargo"`
	Department    string         `json:"departamento"`
	Salary        Amount         `json:"salario"`
	AdmissionDate string         `json:"dataAdmissao"`
	BirthDate     string         `json:"dataNascimento,omitempty"`
	Status        EmployeeStatus `json:"status"`
}

type VacancyStatus string

const (
	VacancyOpen   VacancyStatus = "aberta"
	VacancyClosed VacancyStatus = "fechada"
	VacancyPaused VacancyStatus = "pausada"
	VacancyFilled VacancyStatus = "preenchida"
)

// JobOpening is a vacancy with its candidates embedded.
type JobOpening struct {
	Record
	Title        string        `json:"titulo"`
	Department   string        `json:"departamento"`
	Description  string        `json:"descricao,omitempty"`
	Requirements string        `json:"requisitos,omitempty"`
	SalaryRange  string        `json:"salario,omitempty"` // free text, e.g. "6000-8000"
	Type         string        `json:"tipo,omitempty"`    // CLT, PJ, estágio...
	Location     string        `json:"localizacao,omitempty"`
	Status       VacancyStatus `json:"status"`
	Candidates   []Candidate   `json:"candidatos"`
}

// Candidate returns the index of the candidate with id, or -1.
func (j *JobOpening) Candidate(id string) int {
	for i := range j.Candidates {
		if j.Candidates[i].ID == id {
			return i
		}
	}
	return -1
}

type CandidateStatus string

const (
	CandidateInReview CandidateStatus = "em_analise"
	CandidateApproved CandidateStatus = "aprovado"
	CandidateRejected CandidateStatus = "reprovado"
	CandidateHired    CandidateStatus = "contratado"
)

func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidateInReview, CandidateApproved, CandidateRejected, CandidateHired:
		return true
	}
	return false
}

type Candidate struct {
	ID           string          `json:"id"`
	Name         string          `json:"nome"`
	Email        string          `json:"email"`
	Phone        string          `json:"telefone,omitempty"`
	Status       CandidateStatus `json:"status"`
	RegisteredAt time.Time       `json:"dataCadastro,omitzero"`
}

type Training struct {
	Record
	Title        string   `json:"titulo"`
	Description  string   `json:"descricao,omitempty"`
	Date         string   `json:"data,omitempty"`
	Participants []string `json:"participantes"` // employee ids
}

// Review is a performance review. EmployeeName is a snapshot taken when the
// review was written; the employee may since have been renamed or deleted.
type Review struct {
	Record
	EmployeeID   string `json:"funcionarioId"`
	EmployeeName string `json:"funcionarioNome,omitempty"`
	Type         string `json:"tipo,omitempty"`
	Score        Amount `json:"nota"`
	Date         string `json:"data,omitempty"`
	Notes        string `json:"observacoes,omitempty"`
}

type DocumentType string

const (
	DocContract    DocumentType = "contrato"
	DocRG          DocumentType = "rg"
	DocCPF         DocumentType = "cpf"
	DocCNH         DocumentType = "cnh"
	DocCertificate DocumentType = "certificado"
	DocOther       DocumentType = "outro"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocContract, DocRG, DocCPF, DocCNH, DocCertificate, DocOther:
		return true
	}
	return false
}

// Document describes an employee document. Only file metadata is kept.
type Document struct {
	Record
	EmployeeID  string       `json:"funcionarioId"`
	Type        DocumentType `json:"tipo"`
	Description string       `json:"descricao,omitempty"`
	ExpiryDate  string       `json:"dataValidade,omitempty"`
	File        *FileInfo    `json:"arquivo,omitempty"`
	Status      string       `json:"status"`
}

type FileInfo struct {
	Name       string    `json:"nome"`
	Size       int64     `json:"tamanho"`
	MIMEType   string    `json:"tipo"`
	UploadedAt time.Time `json:"dataUpload,omitzero"`
	Pages      int       `json:"paginas,omitempty"`
}

type VacationType string

const (
	VacationFull    VacationType = "completa"
	VacationPartial VacationType = "parcial"
	VacationAdvance VacationType = "antecipacao"
	VacationSale    VacationType = "venda" // sale of one third of the period
)

func (t VacationType) Valid() bool {
	switch t {
	case VacationFull, VacationPartial, VacationAdvance, VacationSale:
		return true
	}
	return false
}

type VacationStatus string

const (
	VacationPending    VacationStatus = "pendente"
	VacationApproved   VacationStatus = "aprovado"
	VacationDenied     VacationStatus = "negado"
	VacationInProgress VacationStatus = "em_andamento"
	VacationCompleted  VacationStatus = "concluido"
)

type VacationRequest struct {
	Record
	EmployeeID   string         `json:"funcionarioId"`
	Year         string         `json:"ano"`
	Start        string         `json:"dataInicio"`
	End          string         `json:"dataFim"`
	Days         int            `json:"dias"`
	Type         VacationType   `json:"tipo"`
	Notes        string         `json:"observacoes,omitempty"`
	Status       VacationStatus `json:"status"`
	ApprovedBy   string         `json:"aprovadoPor,omitempty"`
	ApprovedAt   time.Time      `json:"dataAprovacao,omitzero"`
	DenialReason string         `json:"motivoNegacao,omitempty"`
}

// Configuration is the company-wide settings singleton.
type Configuration struct {
	CompanyName  string    `json:"nomeEmpresa"`
	ContactEmail string    `json:"emailContato"`
	Version      string    `json:"versao"`
	CreatedAt    time.Time `json:"dataCriacao,omitzero"`
	UpdatedAt    time.Time `json:"dataAtualizacao,omitzero"`
}

// Metadata is recomputed on every write and never set directly.
type Metadata struct {
	LastUpdated    time.Time `json:"ultimaAtualizacao"`
	TotalEmployees int       `json:"totalFuncionarios"`
	TotalVacancies int       `json:"totalVagas"`
	TotalTrainings int       `json:"totalTreinamentos"`
	TotalReviews   int       `json:"totalAvaliacoes"`
	TotalDocuments int       `json:"totalDocumentos"`
	TotalVacations int       `json:"totalFerias"`
}
