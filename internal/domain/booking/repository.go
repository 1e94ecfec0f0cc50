package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/service-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
)

// Colaboradores externos do núcleo de disponibilidade/validação.
// O motor depende só destas interfaces; a implementação gorm vive em
// internal/infra/repository.

type WorkScheduleProvider interface {
	// GetWorkDay resolve o expediente da empresa para o dia da semana.
	// Dia sem configuração ⇒ WorkDay fechado, não erro.
	GetWorkDay(
		ctx context.Context,
		companyID uint,
		weekday int,
	) (schedule.WorkDay, error)
}

type CatalogProvider interface {
	GetService(
		ctx context.Context,
		companyID uint,
		serviceID uint,
	) (*models.Service, error)

	GetProfessional(
		ctx context.Context,
		companyID uint,
		professionalID uint,
	) (*models.Professional, error)

	// ListProfessionals lista os profissionais ativos da empresa.
	ListProfessionals(ctx context.Context, companyID uint) ([]models.Professional, error)
}

type BlockRepository interface {
	// GetActiveBlocks retorna bloqueios ativos que cobrem o intervalo de
	// datas: específicos do profissional ∪ empresa inteira.
	GetActiveBlocks(
		ctx context.Context,
		companyID uint,
		professionalID uint,
		from time.Time,
		to time.Time,
	) ([]models.ScheduleBlock, error)

	CreateBlock(ctx context.Context, block *models.ScheduleBlock) error
	UpdateBlock(ctx context.Context, block *models.ScheduleBlock) error
	GetBlockByID(ctx context.Context, companyID, blockID uint) (*models.ScheduleBlock, error)
	ListBlocks(ctx context.Context, companyID uint) ([]models.ScheduleBlock, error)
}

type AppointmentRepository interface {
	// GetNonCancelled lista os agendamentos não cancelados do profissional
	// no dia, ordenados por início. excludeID > 0 ignora o próprio
	// agendamento (reagendamento).
	GetNonCancelled(
		ctx context.Context,
		companyID uint,
		professionalID uint,
		date time.Time,
		excludeID uint,
	) ([]models.Appointment, error)

	CreateAppointment(ctx context.Context, ap *models.Appointment) error
	UpdateAppointment(ctx context.Context, ap *models.Appointment) error

	GetAppointment(
		ctx context.Context,
		companyID uint,
		appointmentID uint,
	) (*models.Appointment, error)

	// CreateAppointmentChecked cria dentro de uma transação que trava e
	// reconfere conflitos (autoridade final contra corrida de commit).
	CreateAppointmentChecked(ctx context.Context, ap *models.Appointment) error

	// RescheduleAppointmentChecked move o horário com a mesma reconferência,
	// ignorando o próprio registro.
	RescheduleAppointmentChecked(ctx context.Context, ap *models.Appointment, start, end time.Time) error
}

type CompanyProvider interface {
	GetCompanyByID(ctx context.Context, id uint) (*models.Company, error)
}

type CustomerRepository interface {
	GetOrCreateCustomer(
		ctx context.Context,
		companyID uint,
		name string,
		phone string,
		email string,
	) (*models.Customer, error)
}

// Repository agrega tudo que os casos de uso de agendamento consomem.
type Repository interface {
	WorkScheduleProvider
	CatalogProvider
	BlockRepository
	AppointmentRepository
	CompanyProvider
	CustomerRepository
}
