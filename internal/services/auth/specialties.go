package auth

var specialties = []string{
	"Software Developer",
	"Data Scientist",
	"Cybersecurity Specialist",
	"Network Engineer",
	"DevOps Engineer",
	"Cloud Architect",
	"Database Administrator",
	"Web Developer",
	"Mobile Application Developer",
	"IT Support Specialist",
	"Machine Learning Engineer",
	"Game Developer",
	"System Administrator",
	"IT Project Manager",
	"Blockchain Developer",
	"Artificial Intelligence Engineer",
	"Business Analyst",
	"Quality Assurance Engineer",
	"UI/UX Designer",
	"IT Consultant",
}

// Specialties возвращает список специальностей для формы регистрации.
func Specialties() []string {
	out := make([]string, len(specialties))
	copy(out, specialties)
	return out
}
