package content

import "strings"

var (
	AboutMe = `Hi, I'm Qiankang, a data science undergraduate at UC Berkeley. I enjoy working at the
	intersection of data, algorithms, and high-performance computing. Outside of class, I spend time
	building and testing solvers, creating automation pipelines, and exploring research projects.`

	TitanicPredictor = `Decision tree in C++ on Titanic dataset.`

	FuelEfficiencyClassifier = `CNN model served on a Django web app for quick car image prediction.`
)

// Default is the built-in content used when no content file is configured.
func Default() *Content {
	c, err := New(Document{
		Profile: Profile{
			Name:  "Kant(Qiankang) Wang",
			Title: "Data Science Student @ UC Berkeley",
			Email: "wangqiankang2022@outlook.com",
			Links: []SocialLink{
				{Label: "LinkedIn", URL: "https://linkedin.com/in/qiankang-wang-737b97279"},
				{Label: "GitHub", URL: "https://github.com/xiaole5211314"},
			},
			Avatar: "https://github.com/xiaole5211314.png",
		},
		About: collapse(AboutMe),
		Experience: []ExperienceEntry{
			{
				Organization: "Computational Biophysics Lab, UC Irvine",
				Role:         "Undergraduate Researcher",
				Period:       "Jul 2024 – Present",
				Description: []string{
					"Rebuilt and tested PB solver algorithms (CG, BiCG) in LibTorch.",
					"Automated 1M+ runs with Slurm pipelines on the cluster.",
					"Analyzed results with Python and produced figures for research papers.",
				},
			},
		},
		Projects: []Project{
			{Name: "Titanic Predictor", Description: TitanicPredictor},
			{Name: "Fuel-Efficiency Classifier", Description: FuelEfficiencyClassifier},
		},
		Skills: []Skill{"Python", "C++", "PyTorch", "TensorFlow", "Slurm", "Git", "Docker"},
	})
	if err != nil {
		panic("built-in content is invalid: " + err.Error())
	}
	return c
}

// collapse joins the wrapped lines of a raw string literal into one paragraph.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
