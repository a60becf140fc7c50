package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Type discriminates the schedule config variant.
type Type string

const (
	TypeManual  Type = "manual"
	TypeHourly  Type = "hourly"
	TypeDaily   Type = "daily"
	TypeWeekly  Type = "weekly"
	TypeMonthly Type = "monthly"
	TypeCustom  Type = "custom"
)

// Config is a tagged variant: only the fields valid for Type may be set,
// and Validate rejects illegal combinations at schedule-creation time so
// bad configs never reach the due-check.
type Config struct {
	Type         Type         `json:"type" yaml:"type"`
	MinuteOfHour int          `json:"minute_of_hour,omitempty" yaml:"minute_of_hour,omitempty"` // hourly
	HourOfDay    int          `json:"hour_of_day,omitempty" yaml:"hour_of_day,omitempty"`       // daily, weekly, monthly
	DayOfWeek    time.Weekday `json:"day_of_week,omitempty" yaml:"day_of_week,omitempty"`       // weekly
	DayOfMonth   int          `json:"day_of_month,omitempty" yaml:"day_of_month,omitempty"`     // monthly
	CronExpr     string       `json:"cron_expr,omitempty" yaml:"cron_expr,omitempty"`           // custom
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func (c Config) Validate() error {
	switch c.Type {
	case TypeManual:
		if c.MinuteOfHour != 0 || c.HourOfDay != 0 || c.DayOfWeek != 0 || c.DayOfMonth != 0 || c.CronExpr != "" {
			return fmt.Errorf("manual schedule must not carry timing fields")
		}
	case TypeHourly:
		if c.MinuteOfHour < 0 || c.MinuteOfHour > 59 {
			return fmt.Errorf("minute_of_hour %d out of range [0, 59]", c.MinuteOfHour)
		}
	case TypeDaily:
		if err := validateHour(c.HourOfDay); err != nil {
			return err
		}
	case TypeWeekly:
		if err := validateHour(c.HourOfDay); err != nil {
			return err
		}
		if c.DayOfWeek < time.Sunday || c.DayOfWeek > time.Saturday {
			return fmt.Errorf("day_of_week %d out of range [0, 6]", c.DayOfWeek)
		}
	case TypeMonthly:
		if err := validateHour(c.HourOfDay); err != nil {
			return err
		}
		if c.DayOfMonth < 1 || c.DayOfMonth > 31 {
			return fmt.Errorf("day_of_month %d out of range [1, 31]", c.DayOfMonth)
		}
	case TypeCustom:
		if c.CronExpr == "" {
			return fmt.Errorf("custom schedule requires a cron expression")
		}
		if _, err := cronParser.Parse(c.CronExpr); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", c.CronExpr, err)
		}
	default:
		return fmt.Errorf("unknown schedule type %q", c.Type)
	}

	return nil
}

func validateHour(hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour_of_day %d out of range [0, 23]", hour)
	}
	return nil
}

// Schedule is a recurring or manual trigger definition for a collection
// job. NextRunAt is nil when the schedule is inactive or manual.
type Schedule struct {
	ID          string
	Name        string
	JobType     string
	Config      Config
	IsActive    bool
	EntityScope []string // entity slugs; empty means every enabled entity
	LastRunAt   *time.Time
	NextRunAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
