package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/timezone"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

// --------------------------------------------------
// Company
// --------------------------------------------------

func (r *BookingGormRepository) GetCompanyByID(
	ctx context.Context,
	id uint,
) (*models.Company, error) {

	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// --------------------------------------------------
// Catálogo
// --------------------------------------------------

func (r *BookingGormRepository) GetService(
	ctx context.Context,
	companyID uint,
	serviceID uint,
) (*models.Service, error) {

	var service models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", serviceID, companyID).
		First(&service).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &service, nil
}

func (r *BookingGormRepository) GetProfessional(
	ctx context.Context,
	companyID uint,
	professionalID uint,
) (*models.Professional, error) {

	var professional models.Professional
	if err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", professionalID, companyID).
		First(&professional).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &professional, nil
}

func (r *BookingGormRepository) ListProfessionals(
	ctx context.Context,
	companyID uint,
) ([]models.Professional, error) {

	var professionals []models.Professional
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND active = true", companyID).
		Order("id ASC").
		Find(&professionals).Error; err != nil {
		return nil, err
	}
	return professionals, nil
}

// --------------------------------------------------
// Expediente
// --------------------------------------------------

func (r *BookingGormRepository) GetWorkDay(
	ctx context.Context,
	companyID uint,
	weekday int,
) (schedule.WorkDay, error) {

	var wh models.WorkingHours
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND weekday = ?", companyID, weekday).
		First(&wh).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			// dia sem configuração = fechado, não erro
			return schedule.WorkDay{Weekday: weekday}, nil
		}
		return schedule.WorkDay{}, err
	}

	return schedule.NewWorkDay(
		wh.Weekday,
		wh.Active,
		wh.StartTime, wh.EndTime,
		wh.LunchStart, wh.LunchEnd,
		wh.SlotGranularityMin,
		wh.AdvanceMaxDays,
		wh.SameDayAllowed,
	), nil
}

// --------------------------------------------------
// Bloqueios
// --------------------------------------------------

func (r *BookingGormRepository) GetActiveBlocks(
	ctx context.Context,
	companyID uint,
	professionalID uint,
	from time.Time,
	to time.Time,
) ([]models.ScheduleBlock, error) {

	// datas de bloqueio vivem como meia-noite UTC; from/to podem chegar
	// como meia-noite no timezone da empresa — compara por dia civil
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	var blocks []models.ScheduleBlock
	if err := r.db.WithContext(ctx).
		Where(
			"company_id = ? AND active = true AND (professional_id IS NULL OR professional_id = ?)",
			companyID, professionalID,
		).
		Where("start_date < ? AND end_date >= ?", toDay.AddDate(0, 0, 1), fromDay).
		Order("start_date ASC").
		Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *BookingGormRepository) CreateBlock(
	ctx context.Context,
	block *models.ScheduleBlock,
) error {
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *BookingGormRepository) UpdateBlock(
	ctx context.Context,
	block *models.ScheduleBlock,
) error {
	return r.db.WithContext(ctx).Save(block).Error
}

func (r *BookingGormRepository) GetBlockByID(
	ctx context.Context,
	companyID uint,
	blockID uint,
) (*models.ScheduleBlock, error) {

	var block models.ScheduleBlock
	if err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", blockID, companyID).
		First(&block).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &block, nil
}

func (r *BookingGormRepository) ListBlocks(
	ctx context.Context,
	companyID uint,
) ([]models.ScheduleBlock, error) {

	var blocks []models.ScheduleBlock
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("start_date DESC").
		Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

// --------------------------------------------------
// Agendamentos
// --------------------------------------------------

func (r *BookingGormRepository) GetNonCancelled(
	ctx context.Context,
	companyID uint,
	professionalID uint,
	date time.Time,
	excludeID uint,
) ([]models.Appointment, error) {

	dayStart := timezone.Day(date)
	dayEnd := dayStart.AddDate(0, 0, 1)

	q := r.db.WithContext(ctx).
		Select("id", "start_time", "end_time", "status").
		Where(
			"company_id = ? AND professional_id = ? AND status <> 'cancelled' AND start_time >= ? AND start_time < ?",
			companyID, professionalID, dayStart, dayEnd,
		)

	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var apps []models.Appointment
	if err := q.Order("start_time ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *BookingGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Create(ap).Error
}

func (r *BookingGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Save(ap).Error
}

func (r *BookingGormRepository) GetAppointment(
	ctx context.Context,
	companyID uint,
	appointmentID uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Service").
		Where("id = ? AND company_id = ?", appointmentID, companyID).
		First(&ap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ap, nil
}

// --------------------------------------------------
// Commit com reconferência de conflito
// --------------------------------------------------

// CreateAppointmentChecked trava os agendamentos do profissional e
// reconfere o conflito dentro da transação: a validação prévia não
// protege contra dois commits simultâneos.
func (r *BookingGormRepository) CreateAppointmentChecked(
	ctx context.Context,
	ap *models.Appointment,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// entidades referenciadas podem ter sumido entre validação e commit
		var serviceCount int64
		if err := tx.Model(&models.Service{}).
			Where("id = ? AND company_id = ?", ap.ServiceID, ap.CompanyID).
			Count(&serviceCount).Error; err != nil {
			return err
		}
		if serviceCount == 0 {
			return httperr.ErrNotFound("service_not_found")
		}

		if err := assertNoOverlap(tx, ap.ProfessionalID, ap.StartTime, ap.EndTime, 0); err != nil {
			return err
		}

		return tx.Create(ap).Error
	})
}

// RescheduleAppointmentChecked move o horário com a mesma reconferência,
// ignorando o próprio registro.
func (r *BookingGormRepository) RescheduleAppointmentChecked(
	ctx context.Context,
	ap *models.Appointment,
	start time.Time,
	end time.Time,
) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := assertNoOverlap(tx, ap.ProfessionalID, start, end, ap.ID); err != nil {
			return err
		}

		if err := domain.Reschedule(ap, start, end); err != nil {
			return err
		}
		return tx.Save(ap).Error
	})
}

func assertNoOverlap(tx *gorm.DB, professionalID uint, start, end time.Time, excludeID uint) error {
	q := tx.Model(&models.Appointment{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(
			"professional_id = ? AND status = 'scheduled' AND start_time < ? AND end_time > ?",
			professionalID, end, start,
		)

	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return httperr.ErrBusiness("time_conflict")
	}
	return nil
}

// --------------------------------------------------
// Clientes
// --------------------------------------------------

func (r *BookingGormRepository) GetOrCreateCustomer(
	ctx context.Context,
	companyID uint,
	name string,
	phone string,
	email string,
) (*models.Customer, error) {

	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND phone = ?", companyID, phone).
		First(&customer).Error

	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer = models.Customer{
		CompanyID: companyID,
		Name:      name,
		Phone:     phone,
		Email:     email,
	}

	if err := r.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}

	return &customer, nil
}

// Compile-time check
var _ domain.Repository = (*BookingGormRepository)(nil)
