package account

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-bff/internal/customizer"
	"storefront-bff/internal/models"
	"storefront-bff/internal/validation"
)

var ErrNotFound = errors.New("not found")

// ProfileUpdate is the profile form. Passwords are validated but never kept.
type ProfileUpdate struct {
	Name            string `json:"name" validate:"min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty" validate:"eqfield=NewPassword"`
}

func (p ProfileUpdate) trimmed() ProfileUpdate {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	return p
}

var profileMessages = validation.Messages{
	"name.min":        "Name must be at least 3 characters.",
	"name.max":        "Name must be at most 50 characters.",
	"email":           "Please enter a valid email address.",
	"confirmPassword": "New passwords do not match or confirmation is missing.",
}

func ValidateProfile(p ProfileUpdate) error {
	return validation.Struct(p.trimmed(), profileMessages)
}

// MeasurementInput is the add/edit form of a measurement set.
type MeasurementInput struct {
	Name string `json:"name" validate:"required"`
	models.Measurements
}

func (in MeasurementInput) trimmed() MeasurementInput {
	return MeasurementInput{Name: strings.TrimSpace(in.Name), Measurements: in.Measurements.Trimmed()}
}

var measurementMessages = validation.Messages{
	"name":   "Set name is required.",
	"chest":  "Must be a non-negative number.",
	"waist":  "Must be a non-negative number.",
	"sleeve": "Must be a non-negative number.",
	"height": "Must be a non-negative number.",
}

// Overview is every dashboard tab of one user.
type Overview struct {
	Profile      models.Profile          `json:"profile"`
	Measurements []models.MeasurementSet `json:"measurements"`
	Orders       []models.Order          `json:"orders"`
	Designs      []models.SavedDesign    `json:"designs"`
}

// Dashboard keeps each user's account lists in memory. Every user starts
// from the seed account on first access.
type Dashboard struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	seed     func() models.Account
	today    func() string
}

func NewDashboard(seed func() models.Account) *Dashboard {
	return &Dashboard{
		accounts: make(map[string]*models.Account),
		seed:     seed,
		today:    func() string { return time.Now().Format(time.DateOnly) },
	}
}

// account returns the state of userID; callers hold d.mu.
func (d *Dashboard) account(userID string) *models.Account {
	a, ok := d.accounts[userID]
	if !ok {
		seeded := d.seed()
		seeded.Profile.UserID = userID
		a = &seeded
		d.accounts[userID] = a
		slog.Debug("Seeded account", "user_id", userID)
	}
	return a
}

func (d *Dashboard) Overview(userID string) Overview {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.account(userID)
	return Overview{
		Profile:      a.Profile,
		Measurements: append([]models.MeasurementSet{}, a.Measurements...),
		Orders:       append([]models.Order{}, a.Orders...),
		Designs:      append([]models.SavedDesign{}, a.Designs...),
	}
}

func (d *Dashboard) Profile(userID string) models.Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.account(userID).Profile
}

func (d *Dashboard) UpdateProfile(userID string, p ProfileUpdate) (models.Profile, error) {
	p = p.trimmed()
	if err := validation.Struct(p, profileMessages); err != nil {
		return models.Profile{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.account(userID)
	a.Profile.Name = p.Name
	a.Profile.Email = p.Email
	return a.Profile, nil
}

func (d *Dashboard) Measurements(userID string) []models.MeasurementSet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.MeasurementSet{}, d.account(userID).Measurements...)
}

func (d *Dashboard) AddMeasurement(userID string, in MeasurementInput) (models.MeasurementSet, error) {
	in = in.trimmed()
	if err := validation.Struct(in, measurementMessages); err != nil {
		return models.MeasurementSet{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.account(userID)
	set := models.MeasurementSet{
		ID:           "m-" + uuid.NewString(),
		Name:         in.Name,
		LastUpdated:  d.today(),
		Measurements: in.Measurements,
	}
	a.Measurements = append(a.Measurements, set)
	return set, nil
}

func (d *Dashboard) UpdateMeasurement(userID, id string, in MeasurementInput) (models.MeasurementSet, error) {
	in = in.trimmed()
	if err := validation.Struct(in, measurementMessages); err != nil {
		return models.MeasurementSet{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.account(userID)
	for i := range a.Measurements {
		if a.Measurements[i].ID == id {
			a.Measurements[i].Name = in.Name
			a.Measurements[i].Measurements = in.Measurements
			a.Measurements[i].LastUpdated = d.today()
			return a.Measurements[i], nil
		}
	}
	return models.MeasurementSet{}, fmt.Errorf("measurement set %q: %w", id, ErrNotFound)
}

func (d *Dashboard) DeleteMeasurement(userID, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.account(userID)
	for i := range a.Measurements {
		if a.Measurements[i].ID == id {
			a.Measurements = append(a.Measurements[:i], a.Measurements[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("measurement set %q: %w", id, ErrNotFound)
}

func (d *Dashboard) Orders(userID string) []models.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Order{}, d.account(userID).Orders...)
}

func (d *Dashboard) Order(userID, id string) (models.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, o := range d.account(userID).Orders {
		if o.ID == id {
			return o, nil
		}
	}
	return models.Order{}, fmt.Errorf("order %q: %w", id, ErrNotFound)
}

// RecordOrder appends a placed order to the user's history.
func (d *Dashboard) RecordOrder(userID string, o models.Order) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.account(userID)
	a.Orders = append(a.Orders, o)
	return nil
}

func (d *Dashboard) Designs(userID string) []models.SavedDesign {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.SavedDesign{}, d.account(userID).Designs...)
}

// SaveDesign stores a finalized customizer design under the user's designs.
func (d *Dashboard) SaveDesign(userID string, s customizer.Summary, imageURL string) models.SavedDesign {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.account(userID)
	name := s.Product
	if s.Material != "" {
		name += " - " + s.Material
	}
	design := models.SavedDesign{
		ID:        "d-" + uuid.NewString(),
		Name:      name,
		ImageURL:  imageURL,
		LastSaved: d.today(),
	}
	a.Designs = append(a.Designs, design)
	return design
}

func (d *Dashboard) DeleteDesign(userID, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.account(userID)
	for i := range a.Designs {
		if a.Designs[i].ID == id {
			a.Designs = append(a.Designs[:i], a.Designs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("design %q: %w", id, ErrNotFound)
}
