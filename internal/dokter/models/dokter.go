package models

// Karyawan adalah petugas dashboard (dokter, administrasi, apoteker).
// Password tidak pernah dikirim dalam response.
type Karyawan struct {
	ID        int64  `json:"id"`
	Nama      string `json:"nama"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	Role      string `json:"role"`
	Specialty string `json:"spesialisasi,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	ID       int64  `json:"id"`
	Nama     string `json:"nama"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}
