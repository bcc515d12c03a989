package thrust

func (c Command) scale(k float64) Command {
	return Command{Fx: c.Fx * k, Fy: c.Fy * k, Tau: c.Tau * k, Fz: c.Fz * k, Tp: c.Tp * k}
}

func (c Command) add(o Command) Command {
	return Command{Fx: c.Fx + o.Fx, Fy: c.Fy + o.Fy, Tau: c.Tau + o.Tau, Fz: c.Fz + o.Fz, Tp: c.Tp + o.Tp}
}

func (h HorizontalMatrix) rows() [][]float64 {
	rows := make([][]float64, HorizontalThrusters)
	for i := range rows {
		rows[i] = []float64{h.m.At(i, 0), h.m.At(i, 1), h.m.At(i, 2)}
	}
	return rows
}

func (v VerticalMatrix) rows() [][]float64 {
	return [][]float64{
		{v.m.At(0, 0), v.m.At(0, 1)},
		{v.m.At(1, 0), v.m.At(1, 1)},
	}
}
