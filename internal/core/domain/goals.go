package domain

// GoalInfo describes one goal for prompts and the embedding index.
type GoalInfo struct {
	Goal        Goal
	Title       string
	Description string
}

var goalCatalog = []GoalInfo{
	{1, "No Poverty", "Economic inclusion, poverty eradication strategies and financial empowerment of disadvantaged populations."},
	{2, "Zero Hunger", "Ending hunger, food security and nutrition, and sustainable agriculture."},
	{3, "Good Health and Well-Being", "Health and well-being at all ages, disease prevention, healthcare access and medical advances."},
	{4, "Quality Education", "Inclusive, equitable and quality education and lifelong learning opportunities."},
	{5, "Gender Equality", "Gender equality, empowerment of women and girls, and gender disparities."},
	{6, "Clean Water and Sanitation", "Availability and sustainable management of water and sanitation."},
	{7, "Affordable and Clean Energy", "Affordable, reliable, sustainable and modern energy, including renewable energy technology."},
	{8, "Decent Work and Economic Growth", "Inclusive and sustainable growth, productive employment, formal labour markets, financial inclusion, entrepreneurship and safe working environments."},
	{9, "Industry, Innovation and Infrastructure", "Resilient infrastructure, inclusive industrialization, efficient resource use, research and development and innovation."},
	{10, "Reduced Inequality", "Social, economic and political inequality within and among countries."},
	{11, "Sustainable Cities and Communities", "Inclusive, safe, resilient and sustainable cities, urban planning and community development."},
	{12, "Responsible Consumption and Production", "Sustainable consumption and production, circular economy, sustainable supply chains, waste reduction and corporate sustainability reporting."},
	{13, "Climate Action", "Climate change mitigation and adaptation."},
	{14, "Life Below Water", "Conservation and sustainable use of oceans, seas and marine resources."},
	{15, "Life on Land", "Terrestrial ecosystems, forests, land degradation and biodiversity."},
	{16, "Peace, Justice and Strong Institutions", "Rule of law, access to justice, accountable and transparent institutions, anti-corruption and participatory governance."},
	{17, "Partnerships for the Goals", "Global partnerships, international cooperation, resource mobilization, technology transfer and policy coherence."},
}

// Goals returns the catalog of all 17 goals in order.
func Goals() []GoalInfo {
	out := make([]GoalInfo, len(goalCatalog))
	copy(out, goalCatalog)

	return out
}

// LookupGoal returns catalog information for g.
func LookupGoal(g Goal) (GoalInfo, bool) {
	if !g.Valid() {
		return GoalInfo{}, false
	}

	return goalCatalog[int(g)-1], true
}
