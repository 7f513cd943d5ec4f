package npbweb

// 官网日程/比分接口的报文结构（只解我们要用的字段）

type npbTeam struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type npbScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type npbBatting struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	AB       int    `json:"ab"`
	H        int    `json:"h"`
	R        int    `json:"r"`
	RBI      int    `json:"rbi"`
	HR       int    `json:"hr"`
}

type npbPitching struct {
	Name string  `json:"name"`
	IP   float64 `json:"ip"`
	SO   int     `json:"so"`
	BB   int     `json:"bb"`
	ER   int     `json:"er"`
}

type npbBoxSide struct {
	Runs     int           `json:"runs"`
	Hits     int           `json:"hits"`
	Errors   int           `json:"errors"`
	Batting  []npbBatting  `json:"batting"`
	Pitching []npbPitching `json:"pitching"`
}

type npbBox struct {
	Home npbBoxSide `json:"home"`
	Away npbBoxSide `json:"away"`
}

// npbGame 单场比赛。status取值 before/ongoing/result
type npbGame struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	League    string    `json:"league"`
	Status    string    `json:"status"`
	Venue     string    `json:"venue"`
	StartTime string    `json:"start_time"`
	Home      npbTeam   `json:"home"`
	Away      npbTeam   `json:"away"`
	Score     *npbScore `json:"score"`
	BoxScore  *npbBox   `json:"box_score"`
}
