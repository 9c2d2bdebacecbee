// Package types provides type definitions for structured data used throughout the resume-tailor system.
package types

// ResumeRecord is the structured resume document produced by ingestion and
// consumed by the tailoring workflow. Contact and education fields are never
// modified by tailoring; only projects, skills and experience are replaced.
type ResumeRecord struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone,omitempty"`
	Location   string          `json:"location,omitempty"`
	Links      []string        `json:"links,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	Education  []Education     `json:"education"`
	Experience []Experience    `json:"experience"`
	Projects   []Project       `json:"projects"`
	Skills     []SkillCategory `json:"skills"`
}

// Education represents one education entry on a resume
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	GPA         string `json:"gpa,omitempty"`
}

// Experience represents one work experience entry. Company, role, dates and
// location are structural fields; rewrite stages may only alter bullets.
type Experience struct {
	Company   string   `json:"company"`
	Role      string   `json:"role"`
	Location  string   `json:"location,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
	Bullets   []string `json:"bullets"`
}

// Project represents one project entry on a resume
type Project struct {
	Name         string   `json:"name"`
	Technologies []string `json:"technologies,omitempty"`
	Link         string   `json:"link,omitempty"`
	Bullets      []string `json:"bullets"`
}

// SkillCategory groups related skills under a heading (e.g. "Languages")
type SkillCategory struct {
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

// Clone returns a deep copy of the resume record
func (r *ResumeRecord) Clone() *ResumeRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Links = append([]string(nil), r.Links...)
	out.Education = append([]Education(nil), r.Education...)
	out.Experience = make([]Experience, len(r.Experience))
	for i, e := range r.Experience {
		e.Bullets = append([]string(nil), e.Bullets...)
		out.Experience[i] = e
	}
	out.Projects = make([]Project, len(r.Projects))
	for i, p := range r.Projects {
		p.Technologies = append([]string(nil), p.Technologies...)
		p.Bullets = append([]string(nil), p.Bullets...)
		out.Projects[i] = p
	}
	out.Skills = make([]SkillCategory, len(r.Skills))
	for i, c := range r.Skills {
		c.Skills = append([]string(nil), c.Skills...)
		out.Skills[i] = c
	}
	return &out
}
