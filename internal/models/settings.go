package models

import (
	"time"
)

// SystemSettings is a singleton record (id is always 1). Reads fall back to
// DefaultSystemSettings when the row has never been written.
type SystemSettings struct {
	ID                       int       `json:"id" db:"id"`
	SystemName               string    `json:"system_name" db:"system_name"`
	SystemDescription        string    `json:"system_description" db:"system_description"`
	DefaultCourseName        string    `json:"default_course_name" db:"default_course_name"`
	AvailableGrades          []int     `json:"available_grades" db:"available_grades"`
	EnableEmailNotifications bool      `json:"enable_email_notifications" db:"enable_email_notifications"`
	EnableAutoGrading        bool      `json:"enable_auto_grading" db:"enable_auto_grading"`
	MaxFileSizeMB            int       `json:"max_file_size_mb" db:"max_file_size_mb"`
	AllowedFileTypes         []string  `json:"allowed_file_types" db:"allowed_file_types"`
	RootFolder               string    `json:"root_folder" db:"root_folder"`
	UpdatedAt                time.Time `json:"updated_at" db:"updated_at"`
}

const SystemSettingsID = 1

func DefaultSystemSettings() *SystemSettings {
	return &SystemSettings{
		ID:                       SystemSettingsID,
		SystemName:               "課題管理システム",
		SystemDescription:        "3DCG課題の提出・評価を管理するシステム",
		DefaultCourseName:        "未設定",
		AvailableGrades:          []int{1, 2, 3, 4},
		EnableEmailNotifications: true,
		EnableAutoGrading:        false,
		MaxFileSizeMB:            50,
		AllowedFileTypes:         []string{".blend", ".fbx", ".obj", ".stl"},
		RootFolder:               "",
	}
}
