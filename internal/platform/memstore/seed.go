package memstore

import (
	"github.com/ehr/patientor/internal/domain/entry"
	"github.com/ehr/patientor/internal/domain/patient"
)

var seedDiagnoses = []patient.Diagnosis{
	{Code: "M24.2", Name: "Disorder of ligament", Latin: "Morbositas ligamenti"},
	{Code: "M51.2", Name: "Other specified intervertebral disc displacement", Latin: "Alia dislocatio disci intervertebralis specificata"},
	{Code: "S03.5", Name: "Sprain and strain of joints and ligaments of other and unspecified parts of head", Latin: "Distorsio et/sive distensio articulationum et/sive ligamentorum partium aliarum sive non specificatarum capitis"},
	{Code: "J10.1", Name: "Influenza with other respiratory manifestations, other influenza virus identified", Latin: "Influenza cum aliis manifestationibus respiratoriis ab agente virali identificato"},
	{Code: "J06.9", Name: "Acute upper respiratory infection, unspecified", Latin: "Infectio acuta respiratoria superior non specificata"},
	{Code: "Z57.1", Name: "Occupational exposure to radiation"},
	{Code: "N30.0", Name: "Acute cystitis", Latin: "Cystitis acuta"},
	{Code: "H54.7", Name: "Unspecified visual loss", Latin: "Amblyopia NAS"},
	{Code: "J03.0", Name: "Streptococcal tonsillitis", Latin: "Tonsillitis (palatina) streptococcica"},
	{Code: "L60.1", Name: "Onycholysis", Latin: "Onycholysis"},
	{Code: "Z74.3", Name: "Need for continuous supervision"},
	{Code: "L20", Name: "Atopic dermatitis", Latin: "Atopic dermatitis"},
	{Code: "F43.2", Name: "Adjustment disorders", Latin: "Perturbationes adaptationis"},
	{Code: "S62.5", Name: "Fracture of thumb", Latin: "Fractura [ossis] pollicis"},
	{Code: "H35.29", Name: "Other proliferative retinopathy", Latin: "Alia retinopathia proliferativa"},
}

// seedPatients builds fresh values on every call so stores never share them.
func seedPatients() []*patient.Patient {
	return []*patient.Patient{
		{
			ID:          "d2773336-f723-11e9-8f0b-362b9e155667",
			Name:        "John McClane",
			DateOfBirth: "1986-07-09",
			SSN:         "090786-122X",
			Gender:      patient.GenderMale,
			Occupation:  "New york city cop",
			Entries: entry.List{
				&entry.Hospital{
					Base: entry.Base{
						ID:             "d811e46d-70b3-4d90-b090-4535c7cf8fb1",
						Date:           "2015-01-02",
						Specialist:     "MD House",
						DiagnosisCodes: []string{"S62.5"},
						Description:    "Healing time appr. 2 weeks. patient doesn't remember how he got the injury.",
					},
					Discharge: entry.Discharge{Date: "2015-01-16", Criteria: "Thumb has healed."},
				},
			},
		},
		{
			ID:          "d2773598-f723-11e9-8f0b-362b9e155667",
			Name:        "Martin Riggs",
			DateOfBirth: "1979-01-30",
			SSN:         "300179-77A",
			Gender:      patient.GenderMale,
			Occupation:  "Cop",
			Entries: entry.List{
				&entry.OccupationalHealthcare{
					Base: entry.Base{
						ID:             "fcd59fa6-c4b4-4fec-ac4d-df4fe1f85f62",
						Date:           "2019-08-05",
						Specialist:     "MD House",
						DiagnosisCodes: []string{"Z57.1", "Z74.3", "M51.2"},
						Description:    "Patient mistakenly found himself in a nuclear plant waste site without protection gear. Very minor radiation poisoning.",
					},
					EmployerName: "HyPD",
					SickLeave:    &entry.SickLeave{StartDate: "2019-08-05", EndDate: "2019-08-28"},
				},
			},
		},
		{
			ID:          "d27736ec-f723-11e9-8f0b-362b9e155667",
			Name:        "Hans Gruber",
			DateOfBirth: "1970-04-25",
			SSN:         "250470-555L",
			Gender:      patient.GenderOther,
			Occupation:  "Technician",
			Entries:     entry.List{},
		},
		{
			ID:          "d2773822-f723-11e9-8f0b-362b9e155667",
			Name:        "Dana Scully",
			DateOfBirth: "1974-01-05",
			SSN:         "050174-432N",
			Gender:      patient.GenderFemale,
			Occupation:  "Forensic Pathologist",
			Entries: entry.List{
				&entry.HealthCheck{
					Base: entry.Base{
						ID:          "b4f4eca1-2aa7-4b13-9a18-4a5535c3c8da",
						Date:        "2019-10-20",
						Specialist:  "MD House",
						Description: "Yearly control visit. Cholesterol levels back to normal.",
					},
					HealthCheckRating: entry.Healthy,
				},
				&entry.OccupationalHealthcare{
					Base: entry.Base{
						ID:             "fcd59fa6-c4b4-4fec-ac4d-df4fe1f85f6d",
						Date:           "2019-09-10",
						Specialist:     "MD House",
						DiagnosisCodes: []string{"Z57.1"},
						Description:    "Prescriptions renewed.",
					},
					EmployerName: "FBI",
				},
				&entry.HealthCheck{
					Base: entry.Base{
						ID:             "37be178f-a432-4ba4-aac2-f86810e36a15",
						Date:           "2018-10-05",
						Specialist:     "MD House",
						DiagnosisCodes: []string{"H54.7"},
						Description:    "Yearly control visit. Due to high cholesterol levels recommended to eat more vegetables.",
					},
					HealthCheckRating: entry.LowRisk,
				},
			},
		},
		{
			ID:          "d2773c6e-f723-11e9-8f0b-362b9e155667",
			Name:        "Matti Luukkainen",
			DateOfBirth: "1971-04-09",
			SSN:         "090471-8890",
			Gender:      patient.GenderMale,
			Occupation:  "Digital evangelist",
			Entries: entry.List{
				&entry.OccupationalHealthcare{
					Base: entry.Base{
						ID:             "54a8746e-34c4-4cf4-bf72-bfecd039be9a",
						Date:           "2019-05-01",
						Specialist:     "Dr Byte House",
						DiagnosisCodes: []string{"L20", "F43.2"},
						Description:    "Digital overdose, very bytestatic. Otherwise healthy.",
					},
					EmployerName: "HyPD",
				},
				&entry.HealthCheck{
					Base: entry.Base{
						ID:          "54a8746e-34c4-4cf4-bf72-bfecd039be9b",
						Date:        "2019-05-01",
						Specialist:  "Dr Byte House",
						Description: "Digital overdose, very bytestatic. Otherwise healthy.",
					},
					HealthCheckRating: entry.CriticalRisk,
				},
			},
		},
	}
}
